package progress

import (
	"context"
	"time"
)

type Repository interface {
	// RegisterTasks inserts unknown tasks as PENDING and never touches
	// existing rows. It returns how many were new.
	RegisterTasks(ctx context.Context, tasks []Task) (int, error)
	// PendingTasks lists tasks that are neither COMPLETED nor FAILED and are
	// not held by a live claim.
	PendingTasks(ctx context.Context, taskType TaskType, now time.Time, lease time.Duration) ([]Task, error)
	// ClaimTask stamps the claim and bumps attempts. It returns false when the
	// task is terminal or claimed by someone else within the lease.
	ClaimTask(ctx context.Context, key Key, owner string, now time.Time, lease time.Duration) (bool, error)
	// MarkTask moves a task to status and releases the claim. Terminal rows
	// are never moved back to PENDING. The stored status after the write is
	// returned.
	MarkTask(ctx context.Context, key Key, status Status, lastError string, now time.Time) (Status, error)
	ProgressSummary(ctx context.Context) ([]Count, error)
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)
}
