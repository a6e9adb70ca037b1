package service

import (
	"context"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/admin/aiconfig"

	"github.com/google/uuid"
)

type IAiModelService interface {
	GetAllModels(ctx context.Context, activeOnly bool) ([]*dto.AiModelResponse, error)
	CreateModel(ctx context.Context, req dto.CreateAiModelRequest) (*dto.AiModelResponse, error)
	UpdateModel(ctx context.Context, id uuid.UUID, req dto.UpdateAiModelRequest) (*dto.AiModelResponse, error)
	SetDefaultModel(ctx context.Context, id uuid.UUID) (*dto.AiModelResponse, error)

	// ResolveModel returns the chatbot's model when it exists and is active,
	// otherwise the system default.
	ResolveModel(ctx context.Context, modelId *uuid.UUID) (*entity.AIModel, error)
}

type aiModelService struct {
	uowFactory unitofwork.RepositoryFactory
	manager    *aiconfig.Manager
	cache      *memory.ModelCache
	logger     logger.ILogger
}

func NewAiModelService(uowFactory unitofwork.RepositoryFactory, cache *memory.ModelCache, log logger.ILogger) IAiModelService {
	return &aiModelService{
		uowFactory: uowFactory,
		manager:    aiconfig.NewManager(),
		cache:      cache,
		logger:     log,
	}
}

func (s *aiModelService) GetAllModels(ctx context.Context, activeOnly bool) ([]*dto.AiModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	models, err := s.manager.GetAllModels(ctx, uow, activeOnly)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.AiModelResponse, 0, len(models))
	for _, m := range models {
		res = append(res, aiconfig.ModelToResponse(m))
	}
	return res, nil
}

func (s *aiModelService) CreateModel(ctx context.Context, req dto.CreateAiModelRequest) (*dto.AiModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	created, err := s.manager.CreateModel(ctx, uow, req)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.cache.Flush()
	s.logger.Info("AI_MODEL", "Model created", map[string]interface{}{
		"model_id":   created.Id.String(),
		"provider":   created.Provider,
		"is_default": created.IsDefault,
	})
	return aiconfig.ModelToResponse(created), nil
}

func (s *aiModelService) UpdateModel(ctx context.Context, id uuid.UUID, req dto.UpdateAiModelRequest) (*dto.AiModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := s.manager.UpdateModel(ctx, uow, id, req)
	if err != nil {
		return nil, err
	}

	s.cache.Flush()
	return aiconfig.ModelToResponse(updated), nil
}

func (s *aiModelService) SetDefaultModel(ctx context.Context, id uuid.UUID) (*dto.AiModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	aiModel, err := s.manager.SetDefaultModel(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.cache.Flush()
	s.logger.Info("AI_MODEL", "Default model changed", map[string]interface{}{
		"model_id": id.String(),
	})
	return aiconfig.ModelToResponse(aiModel), nil
}

func (s *aiModelService) ResolveModel(ctx context.Context, modelId *uuid.UUID) (*entity.AIModel, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if modelId != nil {
		if cached, ok := s.cache.Get(*modelId); ok {
			return cached, nil
		}
		aiModel, err := uow.AiModelRepository().FindOne(ctx,
			specification.ByID{ID: *modelId},
			specification.ActiveModels{},
		)
		if err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to load AI model")
		}
		if aiModel != nil {
			s.cache.Save(aiModel)
			return aiModel, nil
		}
		s.logger.Warn("AI_MODEL", "Chatbot model unavailable, using default", map[string]interface{}{
			"model_id": modelId.String(),
		})
	}

	if cached, ok := s.cache.GetDefault(); ok {
		return cached, nil
	}
	aiModel, err := uow.AiModelRepository().FindOne(ctx,
		specification.DefaultModel{},
		specification.ActiveModels{},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "Failed to load default AI model")
	}
	if aiModel == nil {
		return nil, apperror.New(apperror.CodeConfigurationMissing, "No default AI model is configured")
	}

	s.cache.SaveDefault(aiModel)
	return aiModel, nil
}
