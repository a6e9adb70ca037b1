package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/mailer"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu      sync.Mutex
	notices []mailer.LimitReachedNotice
}

func (m *recordingMailer) SendLimitReached(notice mailer.LimitReachedNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice)
	return nil
}

func (m *recordingMailer) sent() []mailer.LimitReachedNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.LimitReachedNotice(nil), m.notices...)
}

func TestConsumerService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, factory := newTestDB(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer pubSub.Close()

	bus := events.NewBus(pubSub, "domain-events")
	forwarded := &recordingPublisher{}
	mail := &recordingMailer{}

	consumer := NewConsumerService(pubSub, bus.Topic(), factory, forwarded, mail, "https://app.example/pricing", nil, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	user := &entity.User{Email: "owner@example.com", FullName: "Rina", Role: entity.UserRoleUser, Status: entity.UserStatusActive}
	require.NoError(t, factory.NewUnitOfWork(ctx).UserRepository().Create(ctx, user))

	chatbotId := uuid.New()
	require.NoError(t, bus.Publish(ctx, events.New(events.TypeChatPublicMessage, map[string]interface{}{
		"chatbot_id": chatbotId.String(),
		"visitor_id": "v-1",
		"referrer":   "https://shop.example",
	})))
	require.NoError(t, bus.Publish(ctx, events.New(events.TypeUsageLimitReached, map[string]interface{}{
		"user_id":   user.Id.String(),
		"plan_name": "Free",
		"limit":     50,
		"window":    "2026-10",
	})))

	assert.Eventually(t, func() bool {
		return len(forwarded.ofType(events.TypeUsageLimitReached)) == 1 &&
			len(forwarded.ofType(events.TypeChatPublicMessage)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := factory.NewUnitOfWork(ctx).ChatbotEventRepository().FindAll(ctx, specification.ByChatbotID{ChatbotID: chatbotId})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, events.TypeChatPublicMessage, stored[0].Event)
	assert.Equal(t, "v-1", stored[0].Metadata["visitor_id"])

	notices := mail.sent()
	require.Len(t, notices, 1)
	assert.Equal(t, "owner@example.com", notices[0].ToEmail)
	assert.Equal(t, 50, notices[0].Limit)
	assert.Equal(t, "1 November 2026", notices[0].ResetsAt)
	assert.Equal(t, "https://app.example/pricing", notices[0].UpgradeURL)
}

func TestIntField(t *testing.T) {
	data := map[string]interface{}{"json": float64(1000), "native": 7, "text": "9"}
	assert.Equal(t, 1000, intField(data, "json"))
	assert.Equal(t, 7, intField(data, "native"))
	assert.Equal(t, 0, intField(data, "text"))
	assert.Equal(t, 0, intField(data, "missing"))
}
