package domain

import (
	"context"
	"time"
)

// ListOptions narrows FindByUser results.
type ListOptions struct {
	Status CastStatus // empty means all statuses
	Limit  int
	Offset int
}

// CastRepository is the transactional store for scheduled casts.
//
// All single-cast mutations that depend on the current status are conditional
// updates: the repository, not the caller, is the authority on the status at
// mutation time. Methods returning a bool report whether the guarded row was
// actually changed.
type CastRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, cast ScheduledCast) error
	GetByID(ctx context.Context, id string) (ScheduledCast, error)

	// FindDue returns casts with status PENDING and scheduled_at <= now,
	// ordered by priority descending then scheduled_at ascending, capped at
	// limit.
	FindDue(ctx context.Context, now time.Time, limit int) ([]ScheduledCast, error)
	FindByUser(ctx context.Context, userID string, opts ListOptions) ([]ScheduledCast, error)

	// UpdatePending persists owner edits, guarded by status = PENDING.
	UpdatePending(ctx context.Context, cast ScheduledCast) (bool, error)

	// Claim atomically transitions PENDING -> PROCESSING. Exactly one caller
	// wins the claim for a given cast; everyone else observes false.
	Claim(ctx context.Context, id string) (bool, error)

	// MarkPublished records a successful publish, guarded by PROCESSING.
	MarkPublished(ctx context.Context, id, castHash string, publishedAt time.Time) (bool, error)

	// MarkFailed records a failed attempt and increments retry_count once,
	// guarded by PROCESSING.
	MarkFailed(ctx context.Context, id, reason string) (bool, error)

	// Cancel transitions PENDING -> CANCELLED.
	Cancel(ctx context.Context, id string) (bool, error)

	// Requeue transitions FAILED -> PENDING with a new scheduled time.
	Requeue(ctx context.Context, id string, scheduledAt time.Time) (bool, error)

	// Delete removes the cast, guarded by status in (PENDING, FAILED).
	Delete(ctx context.Context, id string) (bool, error)

	CountByStatus(ctx context.Context, userID string) (StatusCounts, error)
}

type UserRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByFID(ctx context.Context, fid int64) (User, error)
}
