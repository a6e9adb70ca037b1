package aiconfig

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Manager handles AI configuration and AI model operations. Every method
// works on the unit of work it is given, so callers decide the transaction.
type Manager struct{}

// NewManager creates a new AI config manager
func NewManager() *Manager {
	return &Manager{}
}

// ============================================================================
// Configuration Methods
// ============================================================================

// GetAllConfigurations retrieves all AI configurations
func (m *Manager) GetAllConfigurations(ctx context.Context, uow unitofwork.UnitOfWork) ([]*dto.AiConfigurationResponse, error) {
	configs, err := uow.AiConfigRepository().FindAllConfigurations(ctx, specification.OrderBy{Field: "key"})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.AiConfigurationResponse, 0, len(configs))
	for _, c := range configs {
		responses = append(responses, configToResponse(c))
	}

	return responses, nil
}

// LoadGlobalConfig reads the chat category rows into the typed view.
func (m *Manager) LoadGlobalConfig(ctx context.Context, uow unitofwork.UnitOfWork) (*entity.GlobalConfig, error) {
	configs, err := uow.AiConfigRepository().FindAllConfigurations(ctx,
		specification.ByConfigCategory{Category: entity.AiConfigCategoryChat},
	)
	if err != nil {
		return nil, err
	}
	return ParseGlobalConfig(configs), nil
}

// UpdateConfiguration updates a configuration value after checking it against
// the row's value type.
func (m *Manager) UpdateConfiguration(ctx context.Context, uow unitofwork.UnitOfWork, key string, req dto.UpdateAiConfigurationRequest) (*dto.AiConfigurationResponse, error) {
	config, err := uow.AiConfigRepository().FindConfigurationByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, apperror.NotFound(fmt.Sprintf("configuration with key '%s' not found", key))
	}

	value := strings.TrimSpace(req.Value)
	if err := validateValue(config, value); err != nil {
		return nil, err
	}
	config.Value = value

	if err := uow.AiConfigRepository().UpdateConfiguration(ctx, config); err != nil {
		return nil, err
	}

	return configToResponse(config), nil
}

// ParseGlobalConfig ignores rows whose value does not parse, leaving the
// matching field unset.
func ParseGlobalConfig(configs []*entity.AiConfiguration) *entity.GlobalConfig {
	cfg := &entity.GlobalConfig{}
	for _, c := range configs {
		switch c.Key {
		case entity.AiConfigKeyGlobalPrompt:
			cfg.GlobalPrompt = c.Value
		case entity.AiConfigKeyTemperature:
			if v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err == nil {
				cfg.Temperature = &v
			}
		case entity.AiConfigKeyMaxTokens:
			if v, err := strconv.Atoi(strings.TrimSpace(c.Value)); err == nil && v > 0 {
				cfg.MaxTokens = &v
			}
		}
	}
	return cfg
}

func validateValue(config *entity.AiConfiguration, value string) error {
	switch config.Key {
	case entity.AiConfigKeyTemperature:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 || v > 2 {
			return apperror.New(apperror.CodeValidation, "temperature must be a number between 0 and 2")
		}
		return nil
	case entity.AiConfigKeyMaxTokens:
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return apperror.New(apperror.CodeValidation, "max_tokens must be a positive integer")
		}
		return nil
	}

	switch config.ValueType {
	case entity.AiConfigValueTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return apperror.New(apperror.CodeValidation, fmt.Sprintf("%s must be a number", config.Key))
		}
	case entity.AiConfigValueTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperror.New(apperror.CodeValidation, fmt.Sprintf("%s must be true or false", config.Key))
		}
	}
	return nil
}

// ============================================================================
// AI Model Methods
// ============================================================================

func (m *Manager) GetAllModels(ctx context.Context, uow unitofwork.UnitOfWork, activeOnly bool) ([]*entity.AIModel, error) {
	specs := []specification.Specification{specification.OrderBy{Field: "name"}}
	if activeOnly {
		specs = append(specs, specification.ActiveModels{})
	}
	return uow.AiModelRepository().FindAll(ctx, specs...)
}

// CreateModel adds a model. The first model created becomes the default.
func (m *Manager) CreateModel(ctx context.Context, uow unitofwork.UnitOfWork, req dto.CreateAiModelRequest) (*entity.AIModel, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	aiModel := &entity.AIModel{
		Name:      req.Name,
		Provider:  req.Provider,
		ModelId:   req.ModelId,
		IsActive:  isActive,
		MaxTokens: req.MaxTokens,
	}

	if err := uow.AiModelRepository().Create(ctx, aiModel); err != nil {
		return nil, err
	}

	current, err := uow.AiModelRepository().FindOne(ctx, specification.DefaultModel{})
	if err != nil {
		return nil, err
	}
	if current == nil && aiModel.IsActive {
		if _, err := uow.AiModelRepository().MarkDefault(ctx, aiModel.Id); err != nil {
			return nil, err
		}
		aiModel.IsDefault = true
	}

	return aiModel, nil
}

func (m *Manager) UpdateModel(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, req dto.UpdateAiModelRequest) (*entity.AIModel, error) {
	aiModel, err := uow.AiModelRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if aiModel == nil {
		return nil, apperror.NotFound("AI model not found")
	}

	if req.Name != nil {
		aiModel.Name = *req.Name
	}
	if req.Provider != nil {
		aiModel.Provider = *req.Provider
	}
	if req.ModelId != nil {
		aiModel.ModelId = *req.ModelId
	}
	if req.MaxTokens != nil {
		aiModel.MaxTokens = *req.MaxTokens
	}
	if req.IsActive != nil {
		if !*req.IsActive && aiModel.IsDefault {
			return nil, apperror.New(apperror.CodeValidation, "the default model cannot be deactivated")
		}
		aiModel.IsActive = *req.IsActive
	}

	if err := uow.AiModelRepository().Update(ctx, aiModel); err != nil {
		return nil, err
	}

	return aiModel, nil
}

// SetDefaultModel unsets the current default and sets the new one. It must
// run inside a transaction so readers never see zero or two defaults.
func (m *Manager) SetDefaultModel(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.AIModel, error) {
	aiModel, err := uow.AiModelRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if aiModel == nil {
		return nil, apperror.NotFound("AI model not found")
	}
	if !aiModel.IsActive {
		return nil, apperror.New(apperror.CodeValidation, "an inactive model cannot be the default")
	}

	if err := uow.AiModelRepository().ClearDefault(ctx); err != nil {
		return nil, err
	}
	affected, err := uow.AiModelRepository().MarkDefault(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected != 1 {
		return nil, apperror.NotFound("AI model not found")
	}

	aiModel.IsDefault = true
	return aiModel, nil
}

// ============================================================================
// Mappers
// ============================================================================

func configToResponse(c *entity.AiConfiguration) *dto.AiConfigurationResponse {
	return &dto.AiConfigurationResponse{
		Id:          c.Id,
		Key:         c.Key,
		Value:       c.Value,
		ValueType:   c.ValueType,
		Description: c.Description,
		Category:    c.Category,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ModelToResponse(m *entity.AIModel) *dto.AiModelResponse {
	return &dto.AiModelResponse{
		Id:        m.Id,
		Name:      m.Name,
		Provider:  m.Provider,
		ModelId:   m.ModelId,
		IsDefault: m.IsDefault,
		IsActive:  m.IsActive,
		MaxTokens: m.MaxTokens,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
