package usecase

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
	"github.com/riskibarqy/mercury-team/internal/domain/teamname"
)

func testReconcileOptions() ReconcileOptions {
	return ReconcileOptions{
		Identity: teamname.NewIdentity("Almaden"),
		Aliases: []teamname.Alias{
			{Contains: "esjfc", Short: "ESJFC"},
			{Contains: "east san jose", Short: "ESJFC"},
			{Contains: "mercury", Short: "AFC"},
		},
		ProximityDays:   7,
		RecentFormLimit: 3,
	}
}

func seasonFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		{ID: "g1", Date: "2025-09-07", Time: "2:15 PM", Opponent: "Riverside FC", HomeAway: fixture.Home},
		{ID: "g2", Date: "2025-09-13", Time: "10:30 AM", Opponent: "Lions SC", HomeAway: fixture.Away},
		{ID: "g3", Date: "2025-09-20", Time: "9:00 AM", Opponent: "De Anza Force", HomeAway: fixture.Home},
	}
}

func seasonRows() []scrape.Row {
	return []scrape.Row{
		{MatchNumber: "101", Date: "Sep 07, 2025", Time: "2:15 PM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC 16B", Score: "3 - 1"},
		{MatchNumber: "201", Date: "Aug 30, 2025", Time: "9:00 AM PDT", HomeTeam: "Riverside FC 16B", AwayTeam: "Lions SC", Score: "2 - 2"},
		{MatchNumber: "202", Date: "Aug 23, 2025", Time: "9:00 AM PDT", HomeTeam: "Lions SC", AwayTeam: "Riverside FC 16B", Score: "0 - 1"},
		{MatchNumber: "203", Date: "Sep 06, 2025", Time: "11:00 AM PDT", HomeTeam: "De Anza Force", AwayTeam: "Riverside FC 16B", Score: "1 - 4"},
		{MatchNumber: "102", Date: "Sep 14, 2025", Time: "3:00 PM PDT", HomeTeam: "Lions SC", AwayTeam: "Almaden Mercury B16", Score: "-"},
		{MatchNumber: "103", Date: "Sep 20, 2025", Time: "9:00 AM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "De Anza Force", Score: "-"},
	}
}

func seasonStandings() []standing.Standing {
	return []standing.Standing{
		{Position: 1, Team: "Riverside FC 16B", Won: 3, Lost: 0, Draw: 1, Points: 10},
		{Position: 2, Team: "Lions SC", Won: 1, Lost: 1, Draw: 1, Points: 4},
	}
}

func findFixture(t *testing.T, fixtures []fixture.Fixture, id string) fixture.Fixture {
	t.Helper()
	for _, f := range fixtures {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("fixture %s not found", id)
	return fixture.Fixture{}
}

func TestReconcile_RiversideScoreIsApplied(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{ID: "g1", Date: "2025-09-07", Time: "2:15 PM", Opponent: "Riverside FC", HomeAway: fixture.Home},
	}
	rows := []scrape.Row{
		{HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC 16B", Score: "3-1", Date: "Sep 07, 2025", Time: "2:15 PM PDT"},
	}

	result := Reconcile(stored, rows, nil, testReconcileOptions())

	got := result.Fixtures[0]
	if got.Result == nil || got.Result.Us != 3 || got.Result.Them != 1 {
		t.Fatalf("unexpected result: %+v", got.Result)
	}
	if len(result.Changes) != 1 {
		t.Fatalf("expected exactly one change, got %v", result.Changes)
	}
	if !strings.Contains(result.Changes[0], "Riverside") || !strings.Contains(result.Changes[0], "3-1") {
		t.Fatalf("unexpected change description: %s", result.Changes[0])
	}
	if stored[0].Result != nil {
		t.Fatalf("reconcile mutated the stored input")
	}
}

func TestReconcile_FullPassBackfillsRecordFormAndSchedule(t *testing.T) {
	t.Parallel()

	result := Reconcile(seasonFixtures(), seasonRows(), seasonStandings(), testReconcileOptions())

	if len(result.Skipped) != 0 || len(result.Ambiguities) != 0 {
		t.Fatalf("unexpected skipped=%v ambiguities=%v", result.Skipped, result.Ambiguities)
	}

	g1 := findFixture(t, result.Fixtures, "g1")
	if g1.OpponentRecord != "3-0-1" {
		t.Fatalf("unexpected riverside record: %s", g1.OpponentRecord)
	}
	wantForm := []fixture.RecentResult{
		{Date: "2025-09-06", Opponent: "De Anza", Result: "W", Score: "4-1"},
		{Date: "2025-08-30", Opponent: "Lions SC", Result: "D", Score: "2-2"},
		{Date: "2025-08-23", Opponent: "Lions SC", Result: "W", Score: "1-0"},
	}
	if !reflect.DeepEqual(g1.OpponentRecentResults, wantForm) {
		t.Fatalf("unexpected riverside form: %+v", g1.OpponentRecentResults)
	}

	g2 := findFixture(t, result.Fixtures, "g2")
	if g2.Date != "2025-09-14" || g2.Time != "3:00 PM" {
		t.Fatalf("expected lions fixture rescheduled, got %s %s", g2.Date, g2.Time)
	}
	if g2.OpponentRecord != "1-1-1" {
		t.Fatalf("unexpected lions record: %s", g2.OpponentRecord)
	}
	if len(g2.OpponentRecentResults) != 2 || g2.OpponentRecentResults[0].Score != "2-2" {
		t.Fatalf("unexpected lions form: %+v", g2.OpponentRecentResults)
	}

	g3 := findFixture(t, result.Fixtures, "g3")
	if g3.OpponentRecord != "" {
		t.Fatalf("opponent missing from standings must keep its record, got %s", g3.OpponentRecord)
	}

	want := []string{
		"Riverside FC: no result → 3-1",
		"Riverside FC record: none → 3-0-1",
		"Riverside FC recent form updated (3 results)",
		"Lions SC record: none → 1-1-1",
		"Lions SC recent form updated (2 results)",
		"Lions SC rescheduled: 2025-09-13 10:30 AM → 2025-09-14 3:00 PM",
		"De Anza Force recent form updated (1 results)",
	}
	if !reflect.DeepEqual(result.Changes, want) {
		t.Fatalf("unexpected changes:\n got=%q\nwant=%q", result.Changes, want)
	}
}

func TestReconcile_IsIdempotent(t *testing.T) {
	t.Parallel()

	opts := testReconcileOptions()
	first := Reconcile(seasonFixtures(), seasonRows(), seasonStandings(), opts)
	if len(first.Changes) == 0 {
		t.Fatalf("expected first pass to change fixtures")
	}

	second := Reconcile(first.Fixtures, seasonRows(), seasonStandings(), opts)
	if len(second.Changes) != 0 {
		t.Fatalf("expected no changes on second pass, got %v", second.Changes)
	}

	firstBytes, err := sonic.Marshal(first.Fixtures)
	if err != nil {
		t.Fatalf("marshal first pass: %v", err)
	}
	secondBytes, err := sonic.Marshal(second.Fixtures)
	if err != nil {
		t.Fatalf("marshal second pass: %v", err)
	}
	if string(firstBytes) != string(secondBytes) {
		t.Fatalf("fixtures drifted between passes:\n%s\n%s", firstBytes, secondBytes)
	}
}

func TestReconcile_PlayedFixtureKeepsScheduleButAcceptsScoreCorrection(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{
			ID:          "g9",
			MatchNumber: "150",
			Date:        "2025-08-30",
			Time:        "1:00 PM",
			Opponent:    "Santa Clara Sporting",
			HomeAway:    fixture.Away,
			Result:      &fixture.Result{Us: 2, Them: 0, GoalScorers: []string{"Mia", "Leo"}, Assists: []string{"Sam"}},
		},
	}
	rows := []scrape.Row{
		{MatchNumber: "150", Date: "Sep 02, 2025", Time: "4:00 PM PDT", HomeTeam: "Santa Clara Sporting", AwayTeam: "Almaden Mercury B16", Score: "1 - 2"},
	}

	result := Reconcile(stored, rows, nil, testReconcileOptions())
	got := result.Fixtures[0]

	if got.Date != "2025-08-30" || got.Time != "1:00 PM" {
		t.Fatalf("played fixture must keep its schedule, got %s %s", got.Date, got.Time)
	}
	if got.Result.Us != 2 || got.Result.Them != 1 {
		t.Fatalf("expected score correction to 2-1, got %d-%d", got.Result.Us, got.Result.Them)
	}
	if !reflect.DeepEqual(got.Result.GoalScorers, []string{"Mia", "Leo"}) || !reflect.DeepEqual(got.Result.Assists, []string{"Sam"}) {
		t.Fatalf("scorers and assists must survive a score update: %+v", got.Result)
	}
	if len(result.Changes) != 1 || result.Changes[0] != "Santa Clara Sporting: 2-0 → 2-1" {
		t.Fatalf("unexpected changes: %v", result.Changes)
	}
}

func TestReconcile_RecentFormNeverLooksAhead(t *testing.T) {
	t.Parallel()

	rows := append(seasonRows(),
		scrape.Row{MatchNumber: "204", Date: "Sep 07, 2025", HomeTeam: "Lions SC", AwayTeam: "Riverside FC 16B", Score: "5 - 0"},
		scrape.Row{MatchNumber: "205", Date: "Sep 10, 2025", HomeTeam: "Riverside FC 16B", AwayTeam: "De Anza Force", Score: "0 - 3"},
	)
	stored := seasonFixtures()
	stored[0].OpponentRecentResults = []fixture.RecentResult{
		{Date: "2025-09-09", Opponent: "Future FC", Result: "W", Score: "9-0"},
	}

	result := Reconcile(stored, rows, seasonStandings(), testReconcileOptions())

	for _, f := range result.Fixtures {
		for _, r := range f.OpponentRecentResults {
			if r.Date >= f.Date {
				t.Fatalf("fixture %s (%s) has lookahead result %+v", f.ID, f.Date, r)
			}
		}
	}
}

func TestReconcile_UnmatchedRowsAreIgnored(t *testing.T) {
	t.Parallel()

	rows := []scrape.Row{
		{MatchNumber: "301", Date: "Sep 07, 2025", HomeTeam: "Santa Cruz Breakers", AwayTeam: "Monterey United", Score: "2 - 1"},
		{MatchNumber: "302", Date: "Sep 08, 2025", HomeTeam: "Almaden Mercury B16", AwayTeam: "Palo Alto Soccer Club", Score: "4 - 0"},
	}

	result := Reconcile(seasonFixtures(), rows, nil, testReconcileOptions())

	if len(result.Changes) != 0 || len(result.Skipped) != 0 || len(result.Ambiguities) != 0 {
		t.Fatalf("expected no effect, got changes=%v skipped=%v ambiguities=%v", result.Changes, result.Skipped, result.Ambiguities)
	}
	if !reflect.DeepEqual(result.Fixtures, seasonFixtures()) {
		t.Fatalf("fixtures changed for unmatched rows")
	}
}

func TestReconcile_UnparseableRowsAreSkipped(t *testing.T) {
	t.Parallel()

	rows := []scrape.Row{
		{MatchNumber: "401", Date: "TBD", HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC", Score: "1 - 0"},
		{MatchNumber: "402", Date: "Sep 07, 2025", HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC", Score: "forfeit"},
		{MatchNumber: "403", Date: "Sep 13, 2025", Time: "10:30 AM PDT", HomeTeam: "Lions SC", AwayTeam: "Almaden Mercury B16", Score: "0 - 2"},
	}

	result := Reconcile(seasonFixtures(), rows, nil, testReconcileOptions())

	if len(result.Skipped) != 2 {
		t.Fatalf("expected two skipped rows, got %+v", result.Skipped)
	}
	for _, skipped := range result.Skipped {
		if !errors.Is(skipped.Err, ErrUnparseableRow) {
			t.Fatalf("expected ErrUnparseableRow, got %v", skipped.Err)
		}
	}
	g2 := findFixture(t, result.Fixtures, "g2")
	if g2.Result == nil || g2.Result.Us != 2 || g2.Result.Them != 0 {
		t.Fatalf("valid row after skipped rows must still apply, got %+v", g2.Result)
	}
}

func TestReconcile_EqualDistanceCandidatesAreFlagged(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{ID: "a", Date: "2025-09-10", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Home},
		{ID: "b", Date: "2025-09-16", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Away},
	}
	rows := []scrape.Row{
		{MatchNumber: "501", Date: "Sep 13, 2025", Time: "9:00 AM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Lions SC", Score: "1 - 1"},
	}

	result := Reconcile(stored, rows, nil, testReconcileOptions())

	if len(result.Changes) != 0 {
		t.Fatalf("ambiguous row must not change fixtures, got %v", result.Changes)
	}
	if len(result.Ambiguities) != 1 {
		t.Fatalf("expected one ambiguity, got %+v", result.Ambiguities)
	}
	if got := result.Ambiguities[0].FixtureIDs; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected ambiguity candidates: %v", got)
	}
}

func TestReconcile_ProximityWindowIsConfigurable(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{ID: "p1", Date: "2025-09-01", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Home, Result: &fixture.Result{Us: 1, Them: 1}},
	}
	rows := []scrape.Row{
		{MatchNumber: "601", Date: "Sep 12, 2025", Time: "9:00 AM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Lions SC", Score: "2 - 1"},
	}

	opts := testReconcileOptions()
	if result := Reconcile(stored, rows, nil, opts); len(result.Changes) != 0 {
		t.Fatalf("row outside proximity window must not correct the score: %v", result.Changes)
	}

	opts.ProximityDays = 14
	result := Reconcile(stored, rows, nil, opts)
	if len(result.Changes) != 1 || result.Changes[0] != "Lions SC: 1-1 → 2-1" {
		t.Fatalf("unexpected changes with wider window: %v", result.Changes)
	}
	if result.Fixtures[0].Date != "2025-09-01" {
		t.Fatalf("correction must not reschedule a played fixture")
	}
}

func TestReconcile_SameDateCandidateWinsOverCloserUnplayed(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{ID: "early", Date: "2025-09-06", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Home, Result: &fixture.Result{Us: 0, Them: 0}},
		{ID: "late", Date: "2025-10-04", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Away},
	}
	rows := []scrape.Row{
		{MatchNumber: "701", Date: "Sep 06, 2025", Time: "9:00 AM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Lions SC", Score: "1 - 0"},
	}

	result := Reconcile(stored, rows, nil, testReconcileOptions())

	early := findFixture(t, result.Fixtures, "early")
	late := findFixture(t, result.Fixtures, "late")
	if early.Result.Us != 1 || early.Result.Them != 0 {
		t.Fatalf("expected same-date fixture to take the score, got %+v", early.Result)
	}
	if late.Result != nil || late.Date != "2025-10-04" {
		t.Fatalf("unplayed rematch must stay untouched, got %+v", late)
	}
}

func rematchFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		{ID: "g1", Date: "2025-09-01", Time: "2:15 PM", Opponent: "Riverside FC", HomeAway: fixture.Home},
		{ID: "g2", Date: "2025-09-19", Time: "2:15 PM", Opponent: "Riverside FC", HomeAway: fixture.Away},
	}
}

func rematchRows() []scrape.Row {
	return []scrape.Row{
		{MatchNumber: "101", Date: "Sep 10, 2025", Time: "2:15 PM PDT", HomeTeam: "Riverside FC 16B", AwayTeam: "Almaden Mercury B16", Score: "2 - 3"},
		{MatchNumber: "102", Date: "Sep 04, 2025", Time: "2:15 PM PDT", HomeTeam: "Almaden Mercury B16", AwayTeam: "Riverside FC 16B", Score: "-"},
	}
}

func TestReconcile_RematchTieIsBrokenByOtherRowClaim(t *testing.T) {
	t.Parallel()

	opts := testReconcileOptions()
	first := Reconcile(rematchFixtures(), rematchRows(), nil, opts)

	if len(first.Ambiguities) != 0 {
		t.Fatalf("tie should be settled once the other row claims g1, got %+v", first.Ambiguities)
	}
	g1 := findFixture(t, first.Fixtures, "g1")
	if g1.Date != "2025-09-04" || g1.Result != nil {
		t.Fatalf("unexpected g1 after first pass: %+v", g1)
	}
	g2 := findFixture(t, first.Fixtures, "g2")
	if g2.Date != "2025-09-10" || g2.Result == nil || g2.Result.Us != 3 || g2.Result.Them != 2 {
		t.Fatalf("unexpected g2 after first pass: %+v", g2)
	}

	second := Reconcile(first.Fixtures, rematchRows(), nil, opts)
	if len(second.Changes) != 0 {
		t.Fatalf("expected no changes on second pass, got %q", second.Changes)
	}
	if !reflect.DeepEqual(first.Fixtures, second.Fixtures) {
		t.Fatalf("fixtures drifted between passes:\n%+v\n%+v", first.Fixtures, second.Fixtures)
	}
}

func TestReconcile_AssignmentDoesNotDependOnRowOrder(t *testing.T) {
	t.Parallel()

	rows := rematchRows()
	reversed := []scrape.Row{rows[1], rows[0]}

	forward := Reconcile(rematchFixtures(), rows, nil, testReconcileOptions())
	backward := Reconcile(rematchFixtures(), reversed, nil, testReconcileOptions())

	if !reflect.DeepEqual(forward.Fixtures, backward.Fixtures) {
		t.Fatalf("row order changed the outcome:\n%+v\n%+v", forward.Fixtures, backward.Fixtures)
	}
}

func TestReconcile_SameDayTieReservesBothFixtures(t *testing.T) {
	t.Parallel()

	stored := []fixture.Fixture{
		{ID: "am", Date: "2025-09-13", Time: "9:00 AM", Opponent: "Lions SC", HomeAway: fixture.Home},
		{ID: "pm", Date: "2025-09-13", Time: "3:00 PM", Opponent: "Lions SC", HomeAway: fixture.Away},
	}
	rows := []scrape.Row{
		{MatchNumber: "801", Date: "Sep 13, 2025", HomeTeam: "Almaden Mercury B16", AwayTeam: "Lions SC", Score: "1 - 0"},
		{MatchNumber: "802", Date: "Sep 15, 2025", Time: "6:00 PM PDT", HomeTeam: "Lions SC", AwayTeam: "Almaden Mercury B16", Score: "-"},
	}

	opts := testReconcileOptions()
	first := Reconcile(stored, rows, nil, opts)

	if len(first.Changes) != 0 {
		t.Fatalf("reserved fixtures must not move, got %q", first.Changes)
	}
	if len(first.Ambiguities) != 1 || first.Ambiguities[0].MatchNumber != "801" {
		t.Fatalf("unexpected ambiguities: %+v", first.Ambiguities)
	}

	second := Reconcile(first.Fixtures, rows, nil, opts)
	if len(second.Changes) != 0 {
		t.Fatalf("expected no changes on second pass, got %q", second.Changes)
	}
}
