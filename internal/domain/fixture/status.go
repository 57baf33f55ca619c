package fixture

import (
	"sort"
	"strings"
)

type Category string

const (
	CategoryScheduled Category = "scheduled"
	CategoryInPlay    Category = "in_play"
	CategoryFinished  Category = "finished"
	CategoryVoid      Category = "void"
)

type Status struct {
	Short    string
	Long     string
	Category Category
}

var statuses = map[string]Status{
	"TBD":  {"TBD", "Time To Be Defined", CategoryScheduled},
	"NS":   {"NS", "Not Started", CategoryScheduled},
	"1H":   {"1H", "First Half", CategoryInPlay},
	"HT":   {"HT", "Halftime", CategoryInPlay},
	"2H":   {"2H", "Second Half", CategoryInPlay},
	"ET":   {"ET", "Extra Time", CategoryInPlay},
	"BT":   {"BT", "Break Time", CategoryInPlay},
	"P":    {"P", "Penalty In Progress", CategoryInPlay},
	"LIVE": {"LIVE", "In Progress", CategoryInPlay},
	"SUSP": {"SUSP", "Match Suspended", CategoryInPlay},
	"INT":  {"INT", "Match Interrupted", CategoryInPlay},
	"FT":   {"FT", "Match Finished", CategoryFinished},
	"AET":  {"AET", "Match Finished After Extra Time", CategoryFinished},
	"PEN":  {"PEN", "Match Finished After Penalty", CategoryFinished},
	"PST":  {"PST", "Match Postponed", CategoryVoid},
	"CANC": {"CANC", "Match Cancelled", CategoryVoid},
	"ABD":  {"ABD", "Match Abandoned", CategoryVoid},
	"AWD":  {"AWD", "Technical Loss", CategoryVoid},
	"WO":   {"WO", "WalkOver", CategoryVoid},
}

// LookupStatus resolves a short code from either provider. Unknown codes are
// treated as not started so they stay in the poll window.
func LookupStatus(short string) Status {
	code := strings.ToUpper(strings.TrimSpace(short))
	if s, ok := statuses[code]; ok {
		return s
	}
	return statuses["NS"]
}

// LiveIsh reports whether a fixture in this status should trigger predictions
// when it changes.
func (s Status) LiveIsh() bool {
	return s.Category != CategoryVoid
}

func (s Status) Finished() bool {
	return s.Category == CategoryFinished
}

// ShortCodes lists the status codes of one category in a stable order.
func ShortCodes(category Category) []string {
	out := make([]string, 0, len(statuses))
	for code, s := range statuses {
		if s.Category == category {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
