package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const defaultTaskLimit = 50

// ProgressReader is the ledger view the status endpoints render.
type ProgressReader interface {
	ProgressSummary(ctx context.Context) ([]progress.Count, error)
	ListTasks(ctx context.Context, filter progress.Filter) ([]progress.Task, error)
}

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	progress  ProgressReader
	db        Pinger
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(progressReader ProgressReader, db Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		progress:  progressReader,
		db:        db,
		logger:    logger.Component("httpapi"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", "error", err)
		writeError(ctx, w, fmt.Errorf("%w: database ping: %v", usecase.ErrDependencyUnavailable, err))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProgress")
	defer span.End()

	counts, err := h.progress.ProgressSummary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "progress summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, newProgressSummaryDTO(counts))
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTasks")
	defer span.End()

	query, err := decodeTaskQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validator.StructCtx(ctx, query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	tasks, err := h.progress.ListTasks(ctx, progress.Filter{
		Status:   progress.Status(query.Status),
		TaskType: progress.TaskType(query.TaskType),
		Limit:    query.Limit,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list tasks failed", "status", query.Status, "task_type", query.TaskType, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, newTaskDTO(task))
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"items": items})
}

type taskQuery struct {
	Status   string `validate:"omitempty,oneof=PENDING COMPLETED FAILED"`
	TaskType string `validate:"omitempty,oneof=football_data api_football"`
	Limit    int    `validate:"min=1,max=500"`
}

func decodeTaskQuery(r *http.Request) (taskQuery, error) {
	values := r.URL.Query()
	query := taskQuery{
		Status:   strings.ToUpper(strings.TrimSpace(values.Get("status"))),
		TaskType: strings.ToLower(strings.TrimSpace(values.Get("task_type"))),
		Limit:    defaultTaskLimit,
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return taskQuery{}, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput)
		}
		query.Limit = limit
	}
	return query, nil
}

type progressSummaryDTO struct {
	Counts []progress.Count          `json:"counts"`
	Totals map[progress.Status]int   `json:"totals"`
	ByType map[progress.TaskType]int `json:"byType"`
}

func newProgressSummaryDTO(counts []progress.Count) progressSummaryDTO {
	out := progressSummaryDTO{
		Counts: counts,
		Totals: make(map[progress.Status]int, 3),
		ByType: make(map[progress.TaskType]int, 2),
	}
	if out.Counts == nil {
		out.Counts = []progress.Count{}
	}
	for _, c := range counts {
		out.Totals[c.Status] += c.Total
		out.ByType[c.TaskType] += c.Total
	}
	return out
}

type taskDTO struct {
	CompetitionID int64      `json:"competitionId"`
	SeasonYear    int        `json:"seasonYear"`
	TaskType      string     `json:"taskType"`
	ProviderRef   string     `json:"providerRef"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"lastError,omitempty"`
	ClaimedBy     string     `json:"claimedBy,omitempty"`
	ClaimedAt     *time.Time `json:"claimedAt,omitempty"`
	LastUpdated   time.Time  `json:"lastUpdated"`
}

func newTaskDTO(t progress.Task) taskDTO {
	return taskDTO{
		CompetitionID: t.CompetitionID,
		SeasonYear:    t.SeasonYear,
		TaskType:      string(t.TaskType),
		ProviderRef:   t.ProviderRef,
		Status:        string(t.Status),
		Attempts:      t.Attempts,
		LastError:     t.LastError,
		ClaimedBy:     t.ClaimedBy,
		ClaimedAt:     t.ClaimedAt,
		LastUpdated:   t.LastUpdated,
	}
}
