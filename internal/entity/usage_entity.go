package entity

import (
	"time"

	"github.com/google/uuid"
)

// UsageStats holds the per-user message counter for the current window.
// WindowKey is the "YYYY-MM" month the counter belongs to.
type UsageStats struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	MessageCount    int
	WindowKey       string
	LastResetAt     time.Time
	LimitNotifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
