package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

type ChatMessage struct {
	Id        uuid.UUID
	ChatbotId uuid.UUID
	UserId    *uuid.UUID
	VisitorId *string
	Role      string
	Content   string
	CreatedAt time.Time
}
