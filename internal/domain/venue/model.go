package venue

type Venue struct {
	ID       int64  `validate:"gt=0"`
	Name     string `validate:"required"`
	City     string
	Capacity *int
	Surface  string
}
