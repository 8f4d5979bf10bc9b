package gotsport

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
)

const (
	standingsColumns   = 10
	scheduleMinColumns = 7
)

var (
	matchNumberPattern = regexp.MustCompile(`^\d+$`)
	kickoffPattern     = regexp.MustCompile(`(\d{1,2}:\d{2}\s+[AP]M\s+[A-Z]{3})`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// ParseStandings reads the league table, which is the first table on the
// results page. Rows with fewer than ten cells are ignored.
func ParseStandings(page []byte) ([]standing.Standing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, crerr.Wrap(err, "parse html")
	}

	out := make([]standing.Standing, 0, 16)
	doc.Find("table").First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < standingsColumns {
			return
		}
		num := func(i int) int { return atoiOrZero(cellText(cells.Eq(i))) }

		out = append(out, standing.Standing{
			Position:       num(0),
			Team:           cellText(cells.Eq(1)),
			Played:         num(2),
			Won:            num(3),
			Lost:           num(4),
			Draw:           num(5),
			GoalsFor:       num(6),
			GoalsAgainst:   num(7),
			GoalDifference: num(8),
			Points:         num(9),
		})
	})
	return out, nil
}

// ParseSchedule reads every match table on the schedule page. Tables whose
// header has exactly ten columns are standings and are skipped, as are rows
// whose first cell is not a match number.
func ParseSchedule(page []byte) ([]scrape.Row, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, crerr.Wrap(err, "parse html")
	}

	out := make([]scrape.Row, 0, 32)
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if table.Find("thead tr").First().Find("th, td").Length() == standingsColumns {
			return
		}

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() < scheduleMinColumns {
				return
			}
			matchNumber := cellText(cells.Eq(0))
			if !matchNumberPattern.MatchString(matchNumber) {
				return
			}

			date, kickoff, status := splitKickoffCell(cellText(cells.Eq(1)))
			out = append(out, scrape.Row{
				MatchNumber: matchNumber,
				Date:        date,
				Time:        kickoff,
				HomeTeam:    cellText(cells.Eq(2)),
				Score:       cellText(cells.Eq(3)),
				AwayTeam:    cellText(cells.Eq(4)),
				Location:    cellText(cells.Eq(5)),
				Division:    cellText(cells.Eq(6)),
				Status:      status,
			})
		})
	})
	return out, nil
}

// splitKickoffCell splits "Sep 07, 2025 2:15 PM PDT Scheduled" into its date,
// time and status parts. Without a recognizable time all three are empty.
func splitKickoffCell(text string) (date, kickoff, status string) {
	loc := kickoffPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", "", ""
	}
	kickoff = text[loc[2]:loc[3]]
	date = strings.TrimSpace(text[:loc[2]])
	status = strings.TrimSpace(text[loc[3]:])
	return date, kickoff, status
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s.Text(), " "))
}

func atoiOrZero(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}
