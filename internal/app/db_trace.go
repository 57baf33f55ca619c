package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	placeholderRowRegex  = regexp.MustCompile(`\(\$\d+(?:\s*,\s*\$\d+)*\)`)
)

// formatDBQueryForTrace flattens whitespace and folds the placeholder rows of
// a batched upsert into one so spans stay readable.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = foldPlaceholderRows(normalized)
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

func foldPlaceholderRows(query string) string {
	rows := placeholderRowRegex.FindAllStringIndex(query, -1)
	if len(rows) < 2 {
		return query
	}
	first, last := rows[0], rows[len(rows)-1]
	// Only fold when the rows form one contiguous VALUES list.
	between := placeholderRowRegex.ReplaceAllString(query[first[0]:last[1]], "")
	if strings.Trim(between, ", ") != "" {
		return query
	}
	return query[:first[1]] + " /* x" + strconv.Itoa(len(rows)) + " rows */" + query[last[1]:]
}
