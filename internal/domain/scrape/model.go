package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/mercury-team/internal/domain/standing"
)

// NotPlayed is the score text the source shows for unplayed matches.
const NotPlayed = "-"

var scorePattern = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)

// Row is one match line from the source schedule. Date and Time hold the raw
// source text, e.g. "Sep 07, 2025" and "2:15 PM PDT".
type Row struct {
	MatchNumber string `json:"matchNumber"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	HomeTeam    string `json:"homeTeam"`
	AwayTeam    string `json:"awayTeam"`
	Score       string `json:"score"`
	Location    string `json:"location"`
	Division    string `json:"division"`
	Status      string `json:"status,omitempty"`
}

// ParseScore returns the home and away goals. ok is false for unplayed or
// malformed score text.
func ParseScore(text string) (home, away int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == NotPlayed {
		return 0, 0, false
	}
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	home, errHome := strconv.Atoi(m[1])
	away, errAway := strconv.Atoi(m[2])
	if errHome != nil || errAway != nil {
		return 0, 0, false
	}
	return home, away, true
}

// Snapshot is the source data captured by one successful pass.
type Snapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Standings []standing.Standing `json:"standings"`
	Schedule  []Row               `json:"schedule"`
}
