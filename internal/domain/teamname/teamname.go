// Package teamname turns free-text team names and source dates into
// comparable canonical forms.
package teamname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	clubPhrasePattern = regexp.MustCompile(`\balmaden\s*fc\b`)
	noiseTokenPattern = regexp.MustCompile(`\b(16b|b16|fc|academy|mercury|black)\b`)
)

// Normalize reduces a team name to its canonical comparison key: diacritics
// folded, lowercase, noise tokens removed and whitespace collapsed.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(stripDiacritics(name))
	s = collapseWhitespace(s)
	s = clubPhrasePattern.ReplaceAllString(s, " ")
	s = noiseTokenPattern.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}

// Equal reports whether both names reduce to the same non-empty key.
func Equal(a, b string) bool {
	ka, kb := Normalize(a), Normalize(b)
	return ka != "" && ka == kb
}

// Matches reports whether the keys are equal or one contains the other.
// Empty keys never match.
func Matches(a, b string) bool {
	ka, kb := Normalize(a), Normalize(b)
	if ka == "" || kb == "" {
		return false
	}
	return ka == kb || strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ToCanonicalDate parses source text like "Sep 07, 2025" into "2025-09-07".
// ok is false for unknown months, wrong structure or impossible days.
func ToCanonicalDate(text string) (string, bool) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) != 3 {
		return "", false
	}

	monthWord := strings.ToLower(fields[0])
	if len(monthWord) < 3 {
		return "", false
	}
	month, ok := monthsByPrefix[monthWord[:3]]
	if !ok || !strings.HasPrefix(strings.ToLower(month.String()), monthWord) {
		return "", false
	}

	day, err := strconv.Atoi(fields[1])
	if err != nil || len(fields[1]) > 2 {
		return "", false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil || len(fields[2]) != 4 {
		return "", false
	}

	check := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || check.Day() != day || check.Month() != month {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
}

// Identity recognises the tracked team among source team names.
type Identity struct {
	tokens []string
}

func NewIdentity(tokens ...string) Identity {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(stripDiacritics(strings.TrimSpace(token)))
		if token != "" {
			out = append(out, token)
		}
	}
	return Identity{tokens: out}
}

// IsOurs reports whether name contains any identity token.
func (i Identity) IsOurs(name string) bool {
	folded := strings.ToLower(stripDiacritics(name))
	for _, token := range i.tokens {
		if strings.Contains(folded, token) {
			return true
		}
	}
	return false
}

// Side picks the opponent from a home/away pair. ok is false unless exactly
// one side belongs to the tracked team.
func (i Identity) Side(home, away string) (opponent string, weAreHome bool, ok bool) {
	homeOurs, awayOurs := i.IsOurs(home), i.IsOurs(away)
	switch {
	case homeOurs && !awayOurs:
		return away, true, true
	case awayOurs && !homeOurs:
		return home, false, true
	default:
		return "", false, false
	}
}

// Alias maps any name containing Contains (case-insensitive) to Short.
type Alias struct {
	Contains string
	Short    string
}

// ShortName returns the first matching alias, otherwise the first two words.
func ShortName(name string, aliases []Alias) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}

	lowered := strings.ToLower(trimmed)
	for _, alias := range aliases {
		needle := strings.ToLower(strings.TrimSpace(alias.Contains))
		if needle != "" && strings.Contains(lowered, needle) {
			return alias.Short
		}
	}

	words := strings.Fields(trimmed)
	if len(words) <= 2 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:2], " ")
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
