package standing

import (
	"fmt"

	"github.com/riskibarqy/mercury-team/internal/domain/teamname"
)

// Standing represents a league table row for one team as shown by the source.
type Standing struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	Played         int    `json:"matchesPlayed"`
	Won            int    `json:"wins"`
	Lost           int    `json:"losses"`
	Draw           int    `json:"draws"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

// Record renders the "W-L-D" summary.
func (s Standing) Record() string {
	return fmt.Sprintf("%d-%d-%d", s.Won, s.Lost, s.Draw)
}

// Find looks a team up by canonical name, preferring an exact key match over
// a partial one.
func Find(standings []Standing, team string) (Standing, bool) {
	for _, s := range standings {
		if teamname.Equal(s.Team, team) {
			return s, true
		}
	}
	for _, s := range standings {
		if teamname.Matches(s.Team, team) {
			return s, true
		}
	}
	return Standing{}, false
}
