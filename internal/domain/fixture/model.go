package fixture

import "strings"

const (
	Home = "home"
	Away = "away"
)

const (
	OutcomeWin  = "W"
	OutcomeLoss = "L"
	OutcomeDraw = "D"
)

// Fixture represents one scheduled or completed match of the tracked team.
// Date and Time are civil values; the zone comes from configuration.
type Fixture struct {
	ID                    string         `json:"id" validate:"required"`
	MatchNumber           string         `json:"matchNumber,omitempty" validate:"omitempty,numeric"`
	Date                  string         `json:"date" validate:"required,datetime=2006-01-02"`
	Time                  string         `json:"time" validate:"required"`
	Opponent              string         `json:"opponent" validate:"required"`
	HomeAway              string         `json:"homeAway" validate:"oneof=home away"`
	Location              Location       `json:"location"`
	Jersey                string         `json:"jersey,omitempty"`
	Socks                 string         `json:"socks,omitempty"`
	Result                *Result        `json:"result" validate:"omitempty"`
	TeamRecord            string         `json:"teamRecord,omitempty"`
	OpponentRecord        string         `json:"opponentRecord,omitempty"`
	OpponentRecentResults []RecentResult `json:"opponentRecentResults,omitempty" validate:"omitempty,dive"`
	WeatherURL            string         `json:"weatherUrl,omitempty" validate:"omitempty,url"`
	GotSportURL           string         `json:"gotsportUrl,omitempty" validate:"omitempty,url"`
	PhotoAlbumURL         string         `json:"photoAlbumUrl,omitempty" validate:"omitempty,url"`
}

type Location struct {
	Name          string `json:"name,omitempty"`
	Field         string `json:"field,omitempty"`
	Address       string `json:"address,omitempty"`
	GoogleMapsURL string `json:"googleMapsUrl,omitempty" validate:"omitempty,url"`
	EmbedURL      string `json:"embedUrl,omitempty" validate:"omitempty,url"`
}

// Result is the final score from the tracked team's point of view.
type Result struct {
	Us          int      `json:"us" validate:"min=0"`
	Them        int      `json:"them" validate:"min=0"`
	GoalScorers []string `json:"goalScorers,omitempty"`
	Assists     []string `json:"assists,omitempty"`
}

// RecentResult is one of the opponent's matches against another team, seen
// from the opponent's side.
type RecentResult struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Opponent string `json:"opponent" validate:"required"`
	Result   string `json:"result" validate:"oneof=W L D"`
	Score    string `json:"score" validate:"required"`
}

// Played reports whether a result has been recorded.
func (f Fixture) Played() bool {
	return f.Result != nil
}

// Outcome returns the W/L/D letter for a played fixture, or "" otherwise.
func (f Fixture) Outcome() string {
	if f.Result == nil {
		return ""
	}
	return OutcomeOf(f.Result.Us, f.Result.Them)
}

// OutcomeOf returns the W/L/D letter for a score read from one side.
func OutcomeOf(own, other int) string {
	switch {
	case own > other:
		return OutcomeWin
	case own < other:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (f Fixture) Clone() Fixture {
	out := f
	if f.Result != nil {
		r := *f.Result
		r.GoalScorers = cloneStrings(f.Result.GoalScorers)
		r.Assists = cloneStrings(f.Result.Assists)
		out.Result = &r
	}
	if f.OpponentRecentResults != nil {
		out.OpponentRecentResults = append([]RecentResult(nil), f.OpponentRecentResults...)
	}
	return out
}

func NormalizeHomeAway(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case Away:
		return Away
	default:
		return Home
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
