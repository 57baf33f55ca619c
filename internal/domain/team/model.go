package team

// Team is a club or national side. IDs follow the same offset scheme as
// competitions.
type Team struct {
	ID          int64  `validate:"gt=0"`
	AreaID      *int64 `validate:"omitempty,gt=0"`
	Name        string `validate:"required"`
	ShortName   string
	TLA         string
	CrestURL    string
	Founded     *int
	VenueID     *int64 `validate:"omitempty,gt=0"`
	VenueName   string
	SecondaryID *int64 `validate:"omitempty,gt=0"`
	Source      string `validate:"required"`
}

// Ref is the minimum needed to create a placeholder row for a team that a
// fixture or standing references before the team itself was synced.
type Ref struct {
	ID     int64
	Name   string
	Source string
}

// StubName is used when a provider omits the team name.
func (r Ref) StubName() string {
	if r.Name != "" {
		return r.Name
	}
	return "Unknown team"
}
