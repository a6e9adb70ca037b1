package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chatbot struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	Name          string
	Description   string
	IsPublic      bool
	Temperature   *float64
	MaxTokens     *int
	KnowledgeBase string
	CustomPrompt  string
	ModelId       *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChatbotEvent is a telemetry record written off the request path.
type ChatbotEvent struct {
	Id        uuid.UUID
	ChatbotId uuid.UUID
	Event     string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}
