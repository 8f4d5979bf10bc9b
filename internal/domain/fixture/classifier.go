package fixture

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/mercury-team/internal/platform/civiltime"
)

// Filter selects a view over the fixture list.
type Filter string

const (
	FilterUpcoming Filter = "upcoming"
	FilterPast     Filter = "past"
	FilterAll      Filter = "all"
	FilterNext     Filter = "next"
)

// FormLimit is how many recent results FormString renders.
const FormLimit = 5

func ParseFilter(value string) (Filter, bool) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterUpcoming:
		return FilterUpcoming, true
	case FilterPast:
		return FilterPast, true
	case FilterNext:
		return FilterNext, true
	default:
		return "", false
	}
}

// Countdown is the whole time remaining before kickoff.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Instant resolves the fixture kickoff in loc.
func (f Fixture) Instant(loc *time.Location) (time.Time, error) {
	instant, err := civiltime.ResolveInstant(f.Date, f.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("fixture %s: %w", f.ID, err)
	}
	return instant, nil
}

// IsUpcoming reports whether kickoff is strictly after now. A fixture that
// kicks off exactly at now is past.
func IsUpcoming(f Fixture, now time.Time, loc *time.Location) (bool, error) {
	instant, err := f.Instant(loc)
	if err != nil {
		return false, err
	}
	return instant.After(now), nil
}

type timed struct {
	fixture Fixture
	instant time.Time
}

func resolveAll(fixtures []Fixture, loc *time.Location) ([]timed, error) {
	out := make([]timed, 0, len(fixtures))
	for _, f := range fixtures {
		instant, err := f.Instant(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, timed{fixture: f, instant: instant})
	}
	return out, nil
}

func partition(fixtures []Fixture, now time.Time, loc *time.Location) (upcoming, past []timed, err error) {
	all, err := resolveAll(fixtures, loc)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range all {
		if item.instant.After(now) {
			upcoming = append(upcoming, item)
		} else {
			past = append(past, item)
		}
	}

	sortAscending(upcoming)
	sort.SliceStable(past, func(i, j int) bool {
		if !past[i].instant.Equal(past[j].instant) {
			return past[i].instant.After(past[j].instant)
		}
		return past[i].fixture.ID < past[j].fixture.ID
	})
	return upcoming, past, nil
}

func sortAscending(items []timed) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].instant.Equal(items[j].instant) {
			return items[i].instant.Before(items[j].instant)
		}
		return items[i].fixture.ID < items[j].fixture.ID
	})
}

func unwrap(items []timed, limit int) []Fixture {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Fixture, 0, len(items))
	for _, item := range items {
		out = append(out, item.fixture)
	}
	return out
}

// Next returns the upcoming fixture with the earliest kickoff. Equal kickoffs
// are broken by fixture ID.
func Next(fixtures []Fixture, now time.Time, loc *time.Location) (Fixture, bool, error) {
	upcoming, _, err := partition(fixtures, now, loc)
	if err != nil {
		return Fixture{}, false, err
	}
	if len(upcoming) == 0 {
		return Fixture{}, false, nil
	}
	return upcoming[0].fixture, true, nil
}

// Upcoming returns fixtures after now in kickoff order. limit <= 0 means no limit.
func Upcoming(fixtures []Fixture, now time.Time, loc *time.Location, limit int) ([]Fixture, error) {
	upcoming, _, err := partition(fixtures, now, loc)
	if err != nil {
		return nil, err
	}
	return unwrap(upcoming, limit), nil
}

// Past returns fixtures at or before now, most recent first.
func Past(fixtures []Fixture, now time.Time, loc *time.Location) ([]Fixture, error) {
	_, past, err := partition(fixtures, now, loc)
	if err != nil {
		return nil, err
	}
	return unwrap(past, 0), nil
}

// CountdownUntil returns the truncated days, hours and minutes until kickoff.
// ok is false when the fixture is not upcoming.
func CountdownUntil(f Fixture, now time.Time, loc *time.Location) (Countdown, bool, error) {
	instant, err := f.Instant(loc)
	if err != nil {
		return Countdown{}, false, err
	}
	if !instant.After(now) {
		return Countdown{}, false, nil
	}

	diff := instant.Sub(now)
	const day = 24 * time.Hour
	return Countdown{
		Days:    int(diff / day),
		Hours:   int((diff % day) / time.Hour),
		Minutes: int((diff % time.Hour) / time.Minute),
	}, true, nil
}

// Query applies a filter and optional limit. "all" is kickoff ascending and
// "next" yields at most one fixture.
func Query(fixtures []Fixture, now time.Time, loc *time.Location, filter Filter, limit int) ([]Fixture, error) {
	switch filter {
	case FilterUpcoming:
		return Upcoming(fixtures, now, loc, limit)
	case FilterPast:
		past, err := Past(fixtures, now, loc)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(past) > limit {
			past = past[:limit]
		}
		return past, nil
	case FilterNext:
		next, ok, err := Next(fixtures, now, loc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []Fixture{}, nil
		}
		return []Fixture{next}, nil
	case FilterAll, "":
		all, err := resolveAll(fixtures, loc)
		if err != nil {
			return nil, err
		}
		sortAscending(all)
		return unwrap(all, limit), nil
	default:
		return nil, fmt.Errorf("unknown fixture filter %q", filter)
	}
}

// FormString renders the last FormLimit results as letters, e.g. "WWLD".
func FormString(results []RecentResult) string {
	if len(results) > FormLimit {
		results = results[len(results)-FormLimit:]
	}
	var b strings.Builder
	for _, r := range results {
		b.WriteString(strings.ToUpper(r.Result))
	}
	return b.String()
}
