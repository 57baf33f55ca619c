package competition

// Competition is one league or cup. Primary-provider rows use the native ID;
// secondary-only rows use native ID plus the identity offset.
type Competition struct {
	ID                int64  `validate:"gt=0"`
	AreaID            *int64 `validate:"omitempty,gt=0"`
	Name              string `validate:"required"`
	Code              string
	Type              string
	EmblemURL         string
	SecondaryID       *int64 `validate:"omitempty,gt=0"`
	CurrentSeasonYear *int
	Source            string `validate:"required"`
}
