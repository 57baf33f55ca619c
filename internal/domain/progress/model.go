package progress

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskType names the provider a task is fetched from.
type TaskType string

const (
	TaskFootballData TaskType = "football_data"
	TaskAPIFootball  TaskType = "api_football"
)

type Key struct {
	CompetitionID int64
	SeasonYear    int
	TaskType      TaskType
}

// Task is one backfill unit of work: a competition season from one provider.
type Task struct {
	Key
	// ProviderRef is the provider's own competition identifier.
	ProviderRef       string
	Status            Status
	Attempts          int
	LastError         string
	ClaimedBy         string
	ClaimedAt         *time.Time
	LastUpdated       time.Time
	CurrentSeasonYear *int
}

// IsCurrentSeason reports whether standings should be fetched for the task.
func (t Task) IsCurrentSeason() bool {
	return t.CurrentSeasonYear != nil && *t.CurrentSeasonYear == t.SeasonYear
}

type Count struct {
	TaskType TaskType `json:"taskType"`
	Status   Status   `json:"status"`
	Total    int      `json:"total"`
}

type Filter struct {
	Status   Status
	TaskType TaskType
	Limit    int
}
