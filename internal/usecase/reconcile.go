package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
	"github.com/riskibarqy/mercury-team/internal/domain/teamname"
	"github.com/riskibarqy/mercury-team/internal/platform/civiltime"
)

const (
	defaultProximityDays   = 7
	defaultRecentFormLimit = 3
)

type ReconcileOptions struct {
	Identity teamname.Identity
	Aliases  []teamname.Alias
	// ProximityDays bounds how far a row may sit from an already played
	// fixture and still be treated as a correction of it.
	ProximityDays   int
	RecentFormLimit int
}

func (o ReconcileOptions) normalized() ReconcileOptions {
	if o.ProximityDays <= 0 {
		o.ProximityDays = defaultProximityDays
	}
	if o.RecentFormLimit <= 0 {
		o.RecentFormLimit = defaultRecentFormLimit
	}
	return o
}

// SkippedRow is a source row that could not be canonicalized.
type SkippedRow struct {
	MatchNumber string `json:"match_number,omitempty"`
	Reason      string `json:"reason"`
	Err         error  `json:"-"`
}

// Ambiguity is a row that matched several fixtures equally well and was left
// unapplied.
type Ambiguity struct {
	MatchNumber string   `json:"match_number,omitempty"`
	Opponent    string   `json:"opponent"`
	Date        string   `json:"date"`
	FixtureIDs  []string `json:"fixture_ids"`
}

type ReconcileResult struct {
	Fixtures    []fixture.Fixture
	Changes     []string
	Skipped     []SkippedRow
	Ambiguities []Ambiguity
}

type canonicalRow struct {
	source   scrape.Row
	date     civiltime.Date
	dateText string
	clock    string

	scored    bool
	homeGoals int
	awayGoals int

	ours      bool
	opponent  string
	weAreHome bool
}

func (r canonicalRow) oriented() (us, them int) {
	if r.weAreHome {
		return r.homeGoals, r.awayGoals
	}
	return r.awayGoals, r.homeGoals
}

// Reconcile merges scraped rows into the stored fixtures. It never creates
// fixtures, never errors on unmatched rows, and yields no changes when run
// again over its own output with the same rows.
func Reconcile(stored []fixture.Fixture, rows []scrape.Row, standings []standing.Standing, opts ReconcileOptions) ReconcileResult {
	opts = opts.normalized()

	result := ReconcileResult{Fixtures: make([]fixture.Fixture, 0, len(stored))}
	for _, f := range stored {
		result.Fixtures = append(result.Fixtures, f.Clone())
	}

	canonical := make([]canonicalRow, 0, len(rows))
	for _, row := range rows {
		c, err := canonicalize(row, opts.Identity)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				MatchNumber: row.MatchNumber,
				Reason:      err.Error(),
				Err:         err,
			})
			continue
		}
		canonical = append(canonical, c)
	}

	r := &resolver{fixtures: result.Fixtures, rows: canonical, opts: opts}
	assignments := r.resolve()
	result.Ambiguities = r.ambiguities

	for rowIdx, fixtureIdx := range assignments {
		if fixtureIdx < 0 {
			continue
		}
		changes := applyRow(&result.Fixtures[fixtureIdx], canonical[rowIdx], canonical, standings, opts)
		result.Changes = append(result.Changes, changes...)
	}

	return result
}

func canonicalize(row scrape.Row, identity teamname.Identity) (canonicalRow, error) {
	dateText, ok := teamname.ToCanonicalDate(row.Date)
	if !ok {
		return canonicalRow{}, fmt.Errorf("%w: match %s: date %q", ErrUnparseableRow, row.MatchNumber, row.Date)
	}
	date, err := civiltime.ParseDate(dateText)
	if err != nil {
		return canonicalRow{}, fmt.Errorf("%w: match %s: %v", ErrUnparseableRow, row.MatchNumber, err)
	}
	if strings.TrimSpace(row.HomeTeam) == "" || strings.TrimSpace(row.AwayTeam) == "" {
		return canonicalRow{}, fmt.Errorf("%w: match %s: missing team name", ErrUnparseableRow, row.MatchNumber)
	}

	c := canonicalRow{source: row, date: date, dateText: dateText}

	score := strings.TrimSpace(row.Score)
	if score != "" && score != scrape.NotPlayed {
		home, away, ok := scrape.ParseScore(score)
		if !ok {
			return canonicalRow{}, fmt.Errorf("%w: match %s: score %q", ErrUnparseableRow, row.MatchNumber, row.Score)
		}
		c.scored, c.homeGoals, c.awayGoals = true, home, away
	}

	if clock, err := civiltime.NormalizeClock(row.Time); err == nil {
		c.clock = clock
	}

	c.opponent, c.weAreHome, c.ours = identity.Side(row.HomeTeam, row.AwayTeam)
	return c, nil
}

type resolver struct {
	fixtures    []fixture.Fixture
	rows        []canonicalRow
	opts        ReconcileOptions
	claimed     map[int]bool
	assigned    []int
	ambiguities []Ambiguity
}

// resolve assigns rows to fixtures in three sweeps so stronger evidence
// claims fixtures first: match number, then same opponent on the same date,
// then the closest unplayed or recently played fixture for the opponent.
func (r *resolver) resolve() []int {
	r.claimed = make(map[int]bool, len(r.fixtures))
	r.assigned = make([]int, len(r.rows))
	for i := range r.assigned {
		r.assigned[i] = -1
	}

	r.sweep(func(row canonicalRow) (int, bool) {
		number := strings.TrimSpace(row.source.MatchNumber)
		if number == "" {
			return -1, true
		}
		for idx, f := range r.fixtures {
			if !r.claimed[idx] && strings.TrimSpace(f.MatchNumber) == number {
				return idx, true
			}
		}
		return -1, true
	})

	r.sweep(func(row canonicalRow) (int, bool) {
		var candidates []int
		for idx, f := range r.fixtures {
			if !r.claimed[idx] && f.Date == row.dateText && teamname.Matches(f.Opponent, row.opponent) {
				candidates = append(candidates, idx)
			}
		}
		switch len(candidates) {
		case 0:
			return -1, true
		case 1:
			return candidates[0], true
		default:
			// Tied same-day fixtures stay reserved so no later row moves them.
			r.flag(row, candidates)
			for _, idx := range candidates {
				r.claimed[idx] = true
			}
			return -1, false
		}
	})

	r.settle()

	return r.assigned
}

// sweep offers every still open row to pick. pick returns the fixture index
// (or -1) and whether the row may be considered by later sweeps.
func (r *resolver) sweep(pick func(canonicalRow) (int, bool)) {
	for i, row := range r.rows {
		if !r.open(i) {
			continue
		}
		idx, open := pick(row)
		if !open {
			r.markFlagged(i)
			continue
		}
		if idx >= 0 {
			r.claim(i, idx)
		}
	}
}

// settle places the remaining rows by proximity. Each round claims the
// single closest row/fixture pair whose nearest candidate is unique, with
// unplayed fixtures ahead of played ones. A row whose nearest candidates tie
// waits, since another row may claim one of them, and is flagged only when
// no round can place anything else.
func (r *resolver) settle() {
	for {
		bestRow := -1
		var best nearestMatch
		for i, row := range r.rows {
			if !r.open(i) {
				continue
			}
			m, ok := r.nearest(row)
			if !ok || len(m.fixtures) > 1 {
				continue
			}
			if bestRow == -1 || m.closerThan(best) {
				bestRow, best = i, m
			}
		}
		if bestRow == -1 {
			break
		}
		r.claim(bestRow, best.fixtures[0])
	}

	for i, row := range r.rows {
		if !r.open(i) {
			continue
		}
		if m, ok := r.nearest(row); ok && len(m.fixtures) > 1 {
			r.flag(row, m.fixtures)
			r.markFlagged(i)
		}
	}
}

type nearestMatch struct {
	played   bool
	distance int
	fixtures []int
}

func (m nearestMatch) closerThan(other nearestMatch) bool {
	if m.played != other.played {
		return !m.played
	}
	return m.distance < other.distance
}

// nearest returns the closest unclaimed fixtures for the row's opponent:
// unplayed ones at any distance, otherwise played ones inside the proximity
// window.
func (r *resolver) nearest(row canonicalRow) (nearestMatch, bool) {
	if m, ok := r.closest(row, false, -1); ok {
		return m, true
	}
	return r.closest(row, true, r.opts.ProximityDays)
}

// closest collects the unclaimed fixtures with the given played state at the
// smallest distance from the row. maxDays < 0 disables the distance bound.
func (r *resolver) closest(row canonicalRow, played bool, maxDays int) (nearestMatch, bool) {
	m := nearestMatch{played: played}
	for i, f := range r.fixtures {
		if r.claimed[i] || f.Played() != played || !teamname.Matches(f.Opponent, row.opponent) {
			continue
		}
		date, err := civiltime.ParseDate(f.Date)
		if err != nil {
			continue
		}
		distance := civiltime.DaysBetween(date, row.date)
		if maxDays >= 0 && distance > maxDays {
			continue
		}
		switch {
		case len(m.fixtures) == 0 || distance < m.distance:
			m.distance = distance
			m.fixtures = []int{i}
		case distance == m.distance:
			m.fixtures = append(m.fixtures, i)
		}
	}
	return m, len(m.fixtures) > 0
}

func (r *resolver) open(rowIdx int) bool {
	return r.assigned[rowIdx] == -1 && r.rows[rowIdx].ours
}

func (r *resolver) claim(rowIdx, fixtureIdx int) {
	r.assigned[rowIdx] = fixtureIdx
	r.claimed[fixtureIdx] = true
}

func (r *resolver) flag(row canonicalRow, candidates []int) {
	ids := make([]string, 0, len(candidates))
	for _, idx := range candidates {
		ids = append(ids, r.fixtures[idx].ID)
	}
	r.ambiguities = append(r.ambiguities, Ambiguity{
		MatchNumber: row.source.MatchNumber,
		Opponent:    row.opponent,
		Date:        row.dateText,
		FixtureIDs:  ids,
	})
}

func (r *resolver) markFlagged(rowIdx int) {
	r.assigned[rowIdx] = -2
}

// applyRow updates one fixture from its resolved row and returns the change
// descriptions in score, record, form, schedule order.
func applyRow(f *fixture.Fixture, row canonicalRow, all []canonicalRow, standings []standing.Standing, opts ReconcileOptions) []string {
	var changes []string
	wasPlayed := f.Played()

	if row.scored {
		us, them := row.oriented()
		if f.Result == nil || f.Result.Us != us || f.Result.Them != them {
			old := "no result"
			next := &fixture.Result{Us: us, Them: them}
			if f.Result != nil {
				old = fmt.Sprintf("%d-%d", f.Result.Us, f.Result.Them)
				next.GoalScorers = f.Result.GoalScorers
				next.Assists = f.Result.Assists
			}
			f.Result = next
			changes = append(changes, fmt.Sprintf("%s: %s → %d-%d", f.Opponent, old, us, them))
		}
	}

	if entry, ok := findStanding(standings, row.opponent, f.Opponent); ok {
		if record := entry.Record(); record != f.OpponentRecord {
			old := f.OpponentRecord
			if old == "" {
				old = "none"
			}
			f.OpponentRecord = record
			changes = append(changes, fmt.Sprintf("%s record: %s → %s", f.Opponent, old, record))
		}
	}

	var rescheduled string
	if !wasPlayed {
		rescheduled = applyDrift(f, row)
	}

	form := recentForm(all, row.opponent, f.Date, opts)
	if len(form) == 0 {
		form = withoutLookahead(f.OpponentRecentResults, f.Date)
	}
	if !sameRecentResults(f.OpponentRecentResults, form) {
		f.OpponentRecentResults = form
		changes = append(changes, fmt.Sprintf("%s recent form updated (%d results)", f.Opponent, len(form)))
	}

	if rescheduled != "" {
		changes = append(changes, rescheduled)
	}
	return changes
}

func findStanding(standings []standing.Standing, names ...string) (standing.Standing, bool) {
	for _, name := range names {
		if entry, ok := standing.Find(standings, name); ok {
			return entry, true
		}
	}
	return standing.Standing{}, false
}

func applyDrift(f *fixture.Fixture, row canonicalRow) string {
	newDate := f.Date
	if row.dateText != f.Date {
		newDate = row.dateText
	}

	newTime := f.Time
	if row.clock != "" {
		current, err := civiltime.NormalizeClock(f.Time)
		if err != nil || current != row.clock {
			newTime = row.clock
		}
	}

	if newDate == f.Date && newTime == f.Time {
		return ""
	}

	change := fmt.Sprintf("%s rescheduled: %s %s → %s %s", f.Opponent, f.Date, f.Time, newDate, newTime)
	f.Date, f.Time = newDate, newTime
	return change
}

type formRow struct {
	entry  fixture.RecentResult
	date   civiltime.Date
	number string
}

// recentForm collects the opponent's scored matches strictly before the
// fixture date, newest first, from the opponent's side of the score.
func recentForm(rows []canonicalRow, opponent, fixtureDate string, opts ReconcileOptions) []fixture.RecentResult {
	cutoff, err := civiltime.ParseDate(fixtureDate)
	if err != nil {
		return nil
	}

	var collected []formRow
	for _, row := range rows {
		if !row.scored || !row.date.Before(cutoff) {
			continue
		}
		homeIsOpponent := teamname.Matches(row.source.HomeTeam, opponent)
		awayIsOpponent := teamname.Matches(row.source.AwayTeam, opponent)
		if homeIsOpponent == awayIsOpponent {
			continue
		}

		own, other, opposing := row.homeGoals, row.awayGoals, row.source.AwayTeam
		if awayIsOpponent {
			own, other, opposing = row.awayGoals, row.homeGoals, row.source.HomeTeam
		}

		collected = append(collected, formRow{
			entry: fixture.RecentResult{
				Date:     row.dateText,
				Opponent: teamname.ShortName(opposing, opts.Aliases),
				Result:   fixture.OutcomeOf(own, other),
				Score:    fmt.Sprintf("%d-%d", own, other),
			},
			date:   row.date,
			number: row.source.MatchNumber,
		})
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].date != collected[j].date {
			return collected[j].date.Before(collected[i].date)
		}
		return matchNumberAfter(collected[i].number, collected[j].number)
	})

	if len(collected) > opts.RecentFormLimit {
		collected = collected[:opts.RecentFormLimit]
	}
	if len(collected) == 0 {
		return nil
	}

	out := make([]fixture.RecentResult, 0, len(collected))
	for _, c := range collected {
		out = append(out, c.entry)
	}
	return out
}

// withoutLookahead keeps stored entries dated strictly before the fixture.
func withoutLookahead(results []fixture.RecentResult, fixtureDate string) []fixture.RecentResult {
	cutoff, err := civiltime.ParseDate(fixtureDate)
	if err != nil {
		return results
	}
	var out []fixture.RecentResult
	for _, r := range results {
		date, err := civiltime.ParseDate(r.Date)
		if err == nil && date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func matchNumberAfter(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na > nb
	}
	return a > b
}

func sameRecentResults(a, b []fixture.RecentResult) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
