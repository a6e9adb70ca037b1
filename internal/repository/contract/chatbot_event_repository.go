package contract

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"
)

type ChatbotEventRepository interface {
	Create(ctx context.Context, event *entity.ChatbotEvent) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatbotEvent, error)
}
