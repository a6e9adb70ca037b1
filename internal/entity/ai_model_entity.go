package entity

import (
	"time"

	"github.com/google/uuid"
)

// AIModel is a selectable backend model. At most one row is the default.
type AIModel struct {
	Id        uuid.UUID
	Name      string
	Provider  string
	ModelId   string
	IsDefault bool
	IsActive  bool
	MaxTokens int
	CreatedAt time.Time
	UpdatedAt time.Time
}
