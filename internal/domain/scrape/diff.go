package scrape

import "fmt"

// InitialCapture is reported when there is no previous snapshot to compare.
const InitialCapture = "Initial data capture"

// Diff describes what moved between the previous and current snapshots.
// Standings are keyed by team name and matches by match number.
func Diff(prev *Snapshot, curr Snapshot) []string {
	if prev == nil {
		return []string{InitialCapture}
	}

	var changes []string
	changes = append(changes, diffStandings(prev, curr)...)
	changes = append(changes, diffSchedule(prev, curr)...)
	return changes
}

func diffStandings(prev *Snapshot, curr Snapshot) []string {
	byTeam := make(map[string]int, len(prev.Standings))
	for i, s := range prev.Standings {
		byTeam[s.Team] = i
	}

	var changes []string
	for _, c := range curr.Standings {
		i, ok := byTeam[c.Team]
		if !ok {
			changes = append(changes, fmt.Sprintf("New team added: %s", c.Team))
			continue
		}
		p := prev.Standings[i]
		if p.Position != c.Position {
			changes = append(changes, fmt.Sprintf("%s moved from position %d to %d", c.Team, p.Position, c.Position))
		}
		if p.Points != c.Points {
			changes = append(changes, fmt.Sprintf("%s points changed: %d → %d", c.Team, p.Points, c.Points))
		}
		if p.Won != c.Won || p.Lost != c.Lost || p.Draw != c.Draw {
			changes = append(changes, fmt.Sprintf("%s record updated: %dW-%dL-%dD (was %dW-%dL-%dD)",
				c.Team, c.Won, c.Lost, c.Draw, p.Won, p.Lost, p.Draw))
		}
	}
	return changes
}

func diffSchedule(prev *Snapshot, curr Snapshot) []string {
	byNumber := make(map[string]int, len(prev.Schedule))
	for i, r := range prev.Schedule {
		if _, seen := byNumber[r.MatchNumber]; !seen {
			byNumber[r.MatchNumber] = i
		}
	}

	var changes []string
	for _, c := range curr.Schedule {
		i, ok := byNumber[c.MatchNumber]
		if !ok {
			changes = append(changes, fmt.Sprintf("New match scheduled: %s vs %s on %s", c.HomeTeam, c.AwayTeam, c.Date))
			continue
		}
		p := prev.Schedule[i]
		if p.Score != c.Score && c.Score != NotPlayed && c.Score != "" {
			changes = append(changes, fmt.Sprintf("Score updated for match %s: %s %s %s", c.MatchNumber, c.HomeTeam, c.Score, c.AwayTeam))
		}
		if p.Date != c.Date || p.Time != c.Time {
			changes = append(changes, fmt.Sprintf("Match %s rescheduled: %s %s → %s %s", c.MatchNumber, p.Date, p.Time, c.Date, c.Time))
		}
		if p.Location != c.Location {
			changes = append(changes, fmt.Sprintf("Match %s location changed: %s → %s", c.MatchNumber, p.Location, c.Location))
		}
		if p.Status != c.Status && c.Status != "" {
			changes = append(changes, fmt.Sprintf("Match %s status: %s", c.MatchNumber, c.Status))
		}
	}
	return changes
}
