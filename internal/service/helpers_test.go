package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/database"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, unitofwork.RepositoryFactory) {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := database.NewSQLiteMemoryDB(name)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db, unitofwork.NewRepositoryFactory(db)
}

func seedPlan(t *testing.T, factory unitofwork.RepositoryFactory, slug string, free bool, maxChatbots, maxMessages int) *entity.SubscriptionPlan {
	t.Helper()

	plan := &entity.SubscriptionPlan{
		Name:                strings.ToUpper(slug[:1]) + slug[1:],
		Slug:                slug,
		Currency:            "IDR",
		BillingInterval:     entity.BillingIntervalMonthly,
		MaxChatbots:         maxChatbots,
		MaxMessagesPerMonth: maxMessages,
		Features:            []string{"chat"},
		IsActive:            true,
		IsFree:              free,
	}
	if !free {
		plan.Price = 99000
	}

	ctx := context.Background()
	require.NoError(t, factory.NewUnitOfWork(ctx).SubscriptionRepository().CreatePlan(ctx, plan))
	return plan
}

func seedChatbot(t *testing.T, factory unitofwork.RepositoryFactory, bot *entity.Chatbot) *entity.Chatbot {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, factory.NewUnitOfWork(ctx).ChatbotRepository().Create(ctx, bot))
	return bot
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []events.Event
	for _, evt := range p.events {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}
