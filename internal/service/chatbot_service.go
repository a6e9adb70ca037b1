package service

import (
	"context"
	"strings"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
)

// Caller identifies who is acting on a chatbot.
type Caller struct {
	UserId uuid.UUID
	Role   entity.UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == entity.UserRoleAdmin
}

type IChatbotService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error)
	List(ctx context.Context, caller Caller) ([]*dto.ChatbotResponse, error)
	Show(ctx context.Context, caller Caller, id uuid.UUID) (*dto.ChatbotResponse, error)
	ShowPublic(ctx context.Context, id uuid.UUID) (*dto.PublicChatbotResponse, error)
	Update(ctx context.Context, caller Caller, id uuid.UUID, req *dto.UpdateChatbotRequest) (*dto.ChatbotResponse, error)
	Delete(ctx context.Context, caller Caller, id uuid.UUID) error
	History(ctx context.Context, caller Caller, id uuid.UUID, limit int) ([]*dto.ChatHistoryResponse, error)
}

type chatbotService struct {
	uowFactory  unitofwork.RepositoryFactory
	entitlement IEntitlementService
	publisher   events.Publisher
	logger      logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	entitlementService IEntitlementService,
	publisher events.Publisher,
	log logger.ILogger,
) IChatbotService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &chatbotService{
		uowFactory:  uowFactory,
		entitlement: entitlementService,
		publisher:   publisher,
		logger:      log,
	}
}

func (c *chatbotService) Create(ctx context.Context, caller Caller, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error) {
	if err := c.entitlement.CheckCanCreateChatbot(ctx, caller.UserId); err != nil {
		return nil, err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := c.checkModel(ctx, uow, req.ModelId); err != nil {
		return nil, err
	}

	chatbot := &entity.Chatbot{
		UserId:        caller.UserId,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		IsPublic:      req.IsPublic,
		Temperature:   req.Temperature,
		MaxTokens:     req.MaxTokens,
		KnowledgeBase: req.KnowledgeBase,
		CustomPrompt:  req.CustomPrompt,
		ModelId:       req.ModelId,
	}
	if err := uow.ChatbotRepository().Create(ctx, chatbot); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to create chatbot")
	}

	c.publish(ctx, events.TypeChatbotCreated, chatbot)
	return chatbotToResponse(chatbot), nil
}

func (c *chatbotService) List(ctx context.Context, caller Caller) ([]*dto.ChatbotResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	chatbots, err := uow.ChatbotRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: caller.UserId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatbotResponse, 0, len(chatbots))
	for _, bot := range chatbots {
		res = append(res, chatbotToResponse(bot))
	}
	return res, nil
}

// Show returns the full chatbot to its owner or an admin.
func (c *chatbotService) Show(ctx context.Context, caller Caller, id uuid.UUID) (*dto.ChatbotResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := c.loadManaged(ctx, uow, caller, id)
	if err != nil {
		return nil, err
	}
	return chatbotToResponse(chatbot), nil
}

func (c *chatbotService) ShowPublic(ctx context.Context, id uuid.UUID) (*dto.PublicChatbotResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := uow.ChatbotRepository().FindOne(ctx, specification.ByID{ID: id}, specification.PublicChatbots{})
	if err != nil {
		return nil, err
	}
	if chatbot == nil {
		return nil, apperror.NotFound("Chatbot not found")
	}
	return &dto.PublicChatbotResponse{
		Id:          chatbot.Id,
		Name:        chatbot.Name,
		Description: chatbot.Description,
	}, nil
}

func (c *chatbotService) Update(ctx context.Context, caller Caller, id uuid.UUID, req *dto.UpdateChatbotRequest) (*dto.ChatbotResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := c.loadManaged(ctx, uow, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		chatbot.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		chatbot.Description = *req.Description
	}
	if req.IsPublic != nil {
		chatbot.IsPublic = *req.IsPublic
	}
	if req.Temperature != nil {
		chatbot.Temperature = req.Temperature
	}
	if req.MaxTokens != nil {
		chatbot.MaxTokens = req.MaxTokens
	}
	if req.KnowledgeBase != nil {
		chatbot.KnowledgeBase = *req.KnowledgeBase
	}
	if req.CustomPrompt != nil {
		chatbot.CustomPrompt = *req.CustomPrompt
	}
	switch {
	case req.ClearModel:
		chatbot.ModelId = nil
	case req.ModelId != nil:
		if err := c.checkModel(ctx, uow, req.ModelId); err != nil {
			return nil, err
		}
		chatbot.ModelId = req.ModelId
	}

	if err := uow.ChatbotRepository().Update(ctx, chatbot); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to update chatbot")
	}
	return chatbotToResponse(chatbot), nil
}

// Delete removes the chatbot and its conversation history together.
func (c *chatbotService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	chatbot, err := c.loadManaged(ctx, uow, caller, id)
	if err != nil {
		return err
	}

	if err := uow.ChatMessageRepository().DeleteByChatbotId(ctx, chatbot.Id); err != nil {
		return apperror.Wrap(apperror.CodeInternal, err, "Failed to delete chat history")
	}
	if err := uow.ChatbotRepository().Delete(ctx, chatbot.Id); err != nil {
		return apperror.Wrap(apperror.CodeInternal, err, "Failed to delete chatbot")
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	c.publish(ctx, events.TypeChatbotDeleted, chatbot)
	return nil
}

func (c *chatbotService) History(ctx context.Context, caller Caller, id uuid.UUID, limit int) ([]*dto.ChatHistoryResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	chatbot, err := c.loadManaged(ctx, uow, caller, id)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatbotID{ChatbotID: chatbot.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	// Newest page, oldest first.
	res := make([]*dto.ChatHistoryResponse, len(messages))
	for i, msg := range messages {
		res[len(messages)-1-i] = &dto.ChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			VisitorId: msg.VisitorId,
			CreatedAt: msg.CreatedAt,
		}
	}
	return res, nil
}

// loadManaged returns the chatbot when the caller owns it or is an admin.
// Other callers get NotFound for missing bots and Forbidden otherwise.
func (c *chatbotService) loadManaged(ctx context.Context, uow unitofwork.UnitOfWork, caller Caller, id uuid.UUID) (*entity.Chatbot, error) {
	chatbot, err := uow.ChatbotRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if chatbot == nil {
		return nil, apperror.NotFound("Chatbot not found")
	}
	if chatbot.UserId != caller.UserId && !caller.IsAdmin() {
		return nil, apperror.Forbidden("You do not have access to this chatbot")
	}
	return chatbot, nil
}

func (c *chatbotService) checkModel(ctx context.Context, uow unitofwork.UnitOfWork, modelId *uuid.UUID) error {
	if modelId == nil {
		return nil
	}
	aiModel, err := uow.AiModelRepository().FindOne(ctx, specification.ByID{ID: *modelId}, specification.ActiveModels{})
	if err != nil {
		return err
	}
	if aiModel == nil {
		return apperror.New(apperror.CodeValidation, "Selected AI model is not available")
	}
	return nil
}

func (c *chatbotService) publish(ctx context.Context, eventType string, chatbot *entity.Chatbot) {
	evt := events.New(eventType, map[string]interface{}{
		"chatbot_id": chatbot.Id.String(),
		"user_id":    chatbot.UserId.String(),
	})
	if err := c.publisher.Publish(ctx, evt); err != nil {
		c.logger.Warn("CHATBOT", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func chatbotToResponse(chatbot *entity.Chatbot) *dto.ChatbotResponse {
	return &dto.ChatbotResponse{
		Id:            chatbot.Id,
		UserId:        chatbot.UserId,
		Name:          chatbot.Name,
		Description:   chatbot.Description,
		IsPublic:      chatbot.IsPublic,
		Temperature:   chatbot.Temperature,
		MaxTokens:     chatbot.MaxTokens,
		KnowledgeBase: chatbot.KnowledgeBase,
		CustomPrompt:  chatbot.CustomPrompt,
		ModelId:       chatbot.ModelId,
		CreatedAt:     chatbot.CreatedAt,
		UpdatedAt:     chatbot.UpdatedAt,
	}
}
