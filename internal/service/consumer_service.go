package service

import (
	"context"
	"fmt"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/mailer"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	forwarder  events.Publisher
	mailer     mailer.IEmailService
	upgradeURL string
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

// NewConsumerService builds the in-process event consumer. forwarder may be
// nil when no external bus is configured.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	forwarder events.Publisher,
	emailService mailer.IEmailService,
	upgradeURL string,
	m *metrics.Metrics,
	log logger.ILogger,
) IConsumerService {
	if forwarder == nil {
		forwarder = events.NopPublisher{}
	}
	if emailService == nil {
		emailService = mailer.NewNopEmailService()
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		forwarder:  forwarder,
		mailer:     emailService,
		upgradeURL: upgradeURL,
		metrics:    m,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	evt, err := events.Decode(msg)
	if err != nil {
		cs.logger.Error("CONSUMER", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		cs.metrics.IncTelemetryDropped("decode")
		msg.Ack()
		return
	}

	switch evt.Type {
	case events.TypeChatMessage, events.TypeChatPublicMessage, events.TypeChatFailed:
		if err := cs.recordChatbotEvent(ctx, evt); err != nil {
			cs.logger.Error("CONSUMER", "Failed to store chatbot event", map[string]interface{}{
				"event": evt.Type,
				"error": err.Error(),
			})
			cs.metrics.IncTelemetryDropped("store")
		}
	case events.TypeUsageLimitReached:
		if err := cs.sendLimitNotice(ctx, evt); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to send limit notice", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Forwarding is best effort. Redelivering would duplicate stored rows.
	if err := cs.forwarder.Publish(ctx, evt); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to forward event", map[string]interface{}{
			"event": evt.Type,
			"error": err.Error(),
		})
		cs.metrics.IncTelemetryDropped("forward")
	}

	msg.Ack()
}

func (cs *consumerService) recordChatbotEvent(ctx context.Context, evt events.BaseEvent) error {
	chatbotId, err := uuidField(evt.Data, "chatbot_id")
	if err != nil {
		return err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatbotEventRepository().Create(ctx, &entity.ChatbotEvent{
		ChatbotId: chatbotId,
		Event:     evt.Type,
		Metadata:  evt.Data,
		CreatedAt: evt.OccurredAt,
	})
}

func (cs *consumerService) sendLimitNotice(ctx context.Context, evt events.BaseEvent) error {
	userId, err := uuidField(evt.Data, "user_id")
	if err != nil {
		return err
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}

	resetsAt := ""
	if window, err := entitlement.ParseWindowKey(stringField(evt.Data, "window")); err == nil {
		resetsAt = window.End().Format("2 January 2006")
	}

	return cs.mailer.SendLimitReached(mailer.LimitReachedNotice{
		ToEmail:    user.Email,
		FullName:   user.FullName,
		PlanName:   stringField(evt.Data, "plan_name"),
		Limit:      intField(evt.Data, "limit"),
		ResetsAt:   resetsAt,
		UpgradeURL: cs.upgradeURL,
	})
}

func uuidField(data map[string]interface{}, key string) (uuid.UUID, error) {
	raw, ok := data[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("event has no %s", key)
	}
	return uuid.Parse(raw)
}

func stringField(data map[string]interface{}, key string) string {
	v, _ := data[key].(string)
	return v
}

// intField reads a number that went through JSON.
func intField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
