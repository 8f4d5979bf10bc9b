package app

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// A commit pass inserts every fixture in one statement; span names only
	// need the first tuple.
	extraValueTuplesRegex = regexp.MustCompile(`(VALUES \([^()]*\))((?:, \([^()]*\))+)`)
)

func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = extraValueTuplesRegex.ReplaceAllStringFunc(normalized, func(match string) string {
		parts := extraValueTuplesRegex.FindStringSubmatch(match)
		extra := strings.Count(parts[2], ", (")
		return fmt.Sprintf("%s /* +%d rows */", parts[1], extra)
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
