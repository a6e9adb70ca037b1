package service

import (
	"context"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/cache"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/admin/aiconfig"
)

type IGlobalConfigService interface {
	// GetGlobalConfig reads the chat configuration through the shared cache.
	GetGlobalConfig(ctx context.Context) (*entity.GlobalConfig, error)
	GetAllConfigurations(ctx context.Context) ([]*dto.AiConfigurationResponse, error)
	UpdateConfiguration(ctx context.Context, key string, req dto.UpdateAiConfigurationRequest) (*dto.AiConfigurationResponse, error)
}

type globalConfigService struct {
	uowFactory unitofwork.RepositoryFactory
	manager    *aiconfig.Manager
	cache      *cache.GlobalConfigCache
	logger     logger.ILogger
}

func NewGlobalConfigService(uowFactory unitofwork.RepositoryFactory, configCache *cache.GlobalConfigCache, log logger.ILogger) IGlobalConfigService {
	return &globalConfigService{
		uowFactory: uowFactory,
		manager:    aiconfig.NewManager(),
		cache:      configCache,
		logger:     log,
	}
}

func (s *globalConfigService) GetGlobalConfig(ctx context.Context) (*entity.GlobalConfig, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("GLOBAL_CONFIG", "Cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if ok {
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	cfg, err := s.manager.LoadGlobalConfig(ctx, uow)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cfg); err != nil {
		s.logger.Warn("GLOBAL_CONFIG", "Cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return cfg, nil
}

func (s *globalConfigService) GetAllConfigurations(ctx context.Context) ([]*dto.AiConfigurationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.manager.GetAllConfigurations(ctx, uow)
}

func (s *globalConfigService) UpdateConfiguration(ctx context.Context, key string, req dto.UpdateAiConfigurationRequest) (*dto.AiConfigurationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	res, err := s.manager.UpdateConfiguration(ctx, uow, key, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("GLOBAL_CONFIG", "Cache invalidation failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return res, nil
}
