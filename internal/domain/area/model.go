package area

import (
	"regexp"
	"strings"
)

// Area is a country or region referenced by competitions and teams.
type Area struct {
	ID      int64  `validate:"omitempty,gt=0"`
	Name    string `validate:"required"`
	Code    string
	FlagURL string
}

var whitespace = regexp.MustCompile(`\s+`)

// NameKey is the join key used to match names across providers: lower-case,
// trimmed, inner whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(name), " "))
}
