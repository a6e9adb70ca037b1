package unitofwork

import (
	"context"

	"ai-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionRepository() contract.SubscriptionRepository
	UsageStatsRepository() contract.UsageStatsRepository
	ChatbotRepository() contract.ChatbotRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatbotEventRepository() contract.ChatbotEventRepository
	AiModelRepository() contract.AiModelRepository
	AiConfigRepository() contract.IAiConfigRepository
}
