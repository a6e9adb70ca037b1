package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/metrics"
	"ai-chatbot-be/pkg/prompt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ProviderRegistry looks up the adapter for an AI model's provider.
type ProviderRegistry interface {
	Get(name string) (llm.LLMProvider, error)
}

// VisitorMeta is the request context recorded for public chat telemetry.
type VisitorMeta struct {
	VisitorId string
	Referrer  string
	UserAgent string
}

// ChatStream is a reply in progress. Chunks is closed when the reply ends.
type ChatStream struct {
	ChatbotId uuid.UUID
	Model     string
	Chunks    <-chan llm.StreamChunk
}

type IChatService interface {
	// GenerateChatbotResponse streams a reply for the owner, an admin, or any
	// signed-in user when the chatbot is public.
	GenerateChatbotResponse(ctx context.Context, caller Caller, chatbotId uuid.UUID, req *dto.ChatRequest) (*ChatStream, error)

	// GenerateChatResponse answers an embed widget with a complete reply.
	// Private chatbots are reported as missing.
	GenerateChatResponse(ctx context.Context, chatbotId uuid.UUID, req *dto.PublicChatRequest, meta VisitorMeta) (*dto.ChatResponse, error)
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	entitlement  IEntitlementService
	models       IAiModelService
	globalConfig IGlobalConfigService
	providers    ProviderRegistry
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	entitlementService IEntitlementService,
	modelService IAiModelService,
	globalConfigService IGlobalConfigService,
	providers ProviderRegistry,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) IChatService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &chatService{
		uowFactory:   uowFactory,
		entitlement:  entitlementService,
		models:       modelService,
		globalConfig: globalConfigService,
		providers:    providers,
		publisher:    publisher,
		metrics:      m,
		logger:       log,
	}
}

// preparedChat is everything needed to call the provider once the quota
// has been taken.
type preparedChat struct {
	chatbot  *entity.Chatbot
	model    *entity.AIModel
	provider llm.LLMProvider
	assembly prompt.Assembly
	lastUser string
}

func (p *preparedChat) options() []llm.Option {
	return []llm.Option{
		llm.WithModel(p.model.ModelId),
		llm.WithTemperature(p.assembly.Temperature),
		llm.WithMaxTokens(p.assembly.MaxTokens),
	}
}

func (s *chatService) GenerateChatbotResponse(ctx context.Context, caller Caller, chatbotId uuid.UUID, req *dto.ChatRequest) (*ChatStream, error) {
	ctx, span := otel.Tracer("chat-service").Start(ctx, "GenerateChatbotResponse")
	defer span.End()
	span.SetAttributes(attribute.String("chatbot.id", chatbotId.String()))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := uow.ChatbotRepository().FindOne(ctx, specification.ByID{ID: chatbotId})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to load chatbot")
	}
	if chatbot == nil {
		return nil, apperror.NotFound("Chatbot not found")
	}
	if chatbot.UserId != caller.UserId && !caller.IsAdmin() && !chatbot.IsPublic {
		return nil, apperror.Forbidden("You do not have access to this chatbot")
	}

	prepared, err := s.prepare(ctx, chatbot, req.Messages)
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, chatbot); err != nil {
		return nil, err
	}

	started := time.Now()
	source, err := prepared.provider.ChatStream(ctx, prepared.assembly.Messages, prepared.options()...)
	s.metrics.ObserveLLMRequest(prepared.model.Provider, outcomeOfCall(err), time.Since(started))
	if err != nil {
		span.RecordError(err)
		return nil, s.providerFailed(ctx, prepared, err)
	}

	userId := caller.UserId
	out := make(chan llm.StreamChunk)
	go s.relay(ctx, prepared, source, out, conversationOwner{userId: &userId})

	return &ChatStream{
		ChatbotId: chatbot.Id,
		Model:     prepared.model.Name,
		Chunks:    out,
	}, nil
}

func (s *chatService) GenerateChatResponse(ctx context.Context, chatbotId uuid.UUID, req *dto.PublicChatRequest, meta VisitorMeta) (*dto.ChatResponse, error) {
	ctx, span := otel.Tracer("chat-service").Start(ctx, "GenerateChatResponse")
	defer span.End()
	span.SetAttributes(attribute.String("chatbot.id", chatbotId.String()))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := uow.ChatbotRepository().FindOne(ctx,
		specification.ByID{ID: chatbotId},
		specification.PublicChatbots{},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to load chatbot")
	}
	if chatbot == nil {
		return nil, apperror.NotFound("Chatbot not found")
	}

	prepared, err := s.prepare(ctx, chatbot, req.Messages)
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, chatbot); err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := prepared.provider.Chat(ctx, prepared.assembly.Messages, prepared.options()...)
	s.metrics.ObserveLLMRequest(prepared.model.Provider, outcomeOfCall(err), time.Since(started))
	if err != nil {
		span.RecordError(err)
		return nil, s.providerFailed(ctx, prepared, err)
	}

	visitorId := meta.VisitorId
	if visitorId == "" {
		visitorId = "anonymous"
	}
	s.persist(ctx, prepared, reply, conversationOwner{visitorId: &visitorId})
	s.publish(ctx, events.New(events.TypeChatPublicMessage, map[string]interface{}{
		"chatbot_id": chatbot.Id.String(),
		"owner_id":   chatbot.UserId.String(),
		"visitor_id": visitorId,
		"referrer":   meta.Referrer,
		"user_agent": meta.UserAgent,
		"model":      prepared.model.Name,
		"provider":   prepared.model.Provider,
	}))

	return &dto.ChatResponse{
		ChatbotId: chatbot.Id,
		Message:   dto.ChatMessageDTO{Role: entity.ChatMessageRoleAssistant, Content: reply},
		Model:     prepared.model.Name,
	}, nil
}

// prepare assembles the prompt and picks the provider without touching the
// user's quota.
func (s *chatService) prepare(ctx context.Context, chatbot *entity.Chatbot, messages []dto.ChatMessageDTO) (*preparedChat, error) {
	global, err := s.globalConfig.GetGlobalConfig(ctx)
	if err != nil {
		s.logger.Warn("CHAT", "Global config unavailable, using built-in defaults", map[string]interface{}{
			"error": err.Error(),
		})
		global = &entity.GlobalConfig{}
	}

	conversation := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		conversation = append(conversation, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	assembly, err := prompt.Assemble(
		prompt.ChatbotSettings{
			CustomPrompt:  chatbot.CustomPrompt,
			KnowledgeBase: chatbot.KnowledgeBase,
			Temperature:   chatbot.Temperature,
			MaxTokens:     chatbot.MaxTokens,
		},
		prompt.GlobalSettings{
			GlobalPrompt: global.GlobalPrompt,
			Temperature:  global.Temperature,
			MaxTokens:    global.MaxTokens,
		},
		conversation,
	)
	if err != nil {
		if errors.Is(err, prompt.ErrNoUserMessage) {
			return nil, apperror.New(apperror.CodeValidation, "Conversation must contain a user message")
		}
		return nil, err
	}

	aiModel, err := s.models.ResolveModel(ctx, chatbot.ModelId)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.Get(aiModel.Provider)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeConfigurationMissing, err, "AI provider is not configured")
	}

	return &preparedChat{
		chatbot:  chatbot,
		model:    aiModel,
		provider: provider,
		assembly: assembly,
		lastUser: lastUserTurn(assembly.Messages),
	}, nil
}

// consume takes one message from the chatbot owner's quota.
func (s *chatService) consume(ctx context.Context, chatbot *entity.Chatbot) error {
	_, err := s.entitlement.TryConsumeMessage(ctx, chatbot.UserId)
	return err
}

func (s *chatService) providerFailed(ctx context.Context, prepared *preparedChat, cause error) error {
	if err := s.entitlement.RefundMessage(ctx, prepared.chatbot.UserId); err != nil {
		s.logger.Error("CHAT", "Failed to refund message", map[string]interface{}{
			"user_id": prepared.chatbot.UserId.String(),
			"error":   err.Error(),
		})
	}

	s.logger.Error("CHAT", "AI provider call failed", map[string]interface{}{
		"chatbot_id": prepared.chatbot.Id.String(),
		"provider":   prepared.model.Provider,
		"model":      prepared.model.ModelId,
		"error":      cause.Error(),
	})
	s.publish(ctx, events.New(events.TypeChatFailed, map[string]interface{}{
		"chatbot_id": prepared.chatbot.Id.String(),
		"provider":   prepared.model.Provider,
		"error":      cause.Error(),
	}))

	return apperror.Wrap(apperror.CodeUpstreamFailure, cause, "AI service is temporarily unavailable")
}

// relay forwards chunks until the source closes or the client goes away,
// then stores the exchange. A reply that failed before any content is
// refunded.
func (s *chatService) relay(ctx context.Context, prepared *preparedChat, source <-chan llm.StreamChunk, out chan<- llm.StreamChunk, owner conversationOwner) {
	defer close(out)

	var reply strings.Builder
	var streamErr error

forward:
	for {
		select {
		case <-ctx.Done():
			streamErr = ctx.Err()
			break forward
		case chunk, ok := <-source:
			if !ok {
				break forward
			}
			if chunk.Err != nil {
				streamErr = chunk.Err
			} else {
				reply.WriteString(chunk.Content)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				streamErr = ctx.Err()
				break forward
			}
			if chunk.Err != nil {
				break forward
			}
		}
	}

	bg := context.WithoutCancel(ctx)
	if streamErr != nil && reply.Len() == 0 {
		_ = s.providerFailed(bg, prepared, streamErr)
		return
	}

	s.persist(bg, prepared, reply.String(), owner)
	s.publish(bg, events.New(events.TypeChatMessage, map[string]interface{}{
		"chatbot_id": prepared.chatbot.Id.String(),
		"owner_id":   prepared.chatbot.UserId.String(),
		"model":      prepared.model.Name,
		"provider":   prepared.model.Provider,
		"truncated":  streamErr != nil,
	}))
}

type conversationOwner struct {
	userId    *uuid.UUID
	visitorId *string
}

func (s *chatService) persist(ctx context.Context, prepared *preparedChat, reply string, owner conversationOwner) {
	messages := make([]*entity.ChatMessage, 0, 2)
	if prepared.lastUser != "" {
		messages = append(messages, &entity.ChatMessage{
			ChatbotId: prepared.chatbot.Id,
			UserId:    owner.userId,
			VisitorId: owner.visitorId,
			Role:      entity.ChatMessageRoleUser,
			Content:   prepared.lastUser,
		})
	}
	messages = append(messages, &entity.ChatMessage{
		ChatbotId: prepared.chatbot.Id,
		UserId:    owner.userId,
		VisitorId: owner.visitorId,
		Role:      entity.ChatMessageRoleAssistant,
		Content:   reply,
	})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().CreateBulk(ctx, messages); err != nil {
		s.logger.Error("CHAT", "Failed to store conversation", map[string]interface{}{
			"chatbot_id": prepared.chatbot.Id.String(),
			"error":      err.Error(),
		})
	}
}

func (s *chatService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.IncTelemetryDropped("publish_failed")
		s.logger.Warn("CHAT", "Failed to publish telemetry", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func lastUserTurn(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.ChatMessageRoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func outcomeOfCall(err error) string {
	if err != nil {
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeSuccess
}
