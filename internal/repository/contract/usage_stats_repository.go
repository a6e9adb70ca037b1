package contract

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
)

// UsageStatsRepository exposes the counter as conditional single-row
// statements so callers never read-modify-write the count.
type UsageStatsRepository interface {
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UsageStats, error)

	// EnsureExists inserts a zeroed row for the window when none exists.
	EnsureExists(ctx context.Context, userId uuid.UUID, windowKey string, now time.Time) error

	// ResetIfStale zeroes the counter when its window differs from windowKey.
	ResetIfStale(ctx context.Context, userId uuid.UUID, windowKey string, now time.Time) (bool, error)

	Increment(ctx context.Context, userId uuid.UUID) error

	// IncrementIfBelow adds one only while the count is below limit and
	// reports whether the row changed.
	IncrementIfBelow(ctx context.Context, userId uuid.UUID, limit int) (bool, error)

	// Decrement subtracts one without going below zero.
	Decrement(ctx context.Context, userId uuid.UUID) error

	// MarkLimitNotified stamps the row once per window and reports whether
	// this call was the one that stamped it. ResetIfStale clears the stamp.
	MarkLimitNotified(ctx context.Context, userId uuid.UUID, now time.Time) (bool, error)
}
