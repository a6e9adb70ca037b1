package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type AiMapper struct{}

func NewAiMapper() *AiMapper {
	return &AiMapper{}
}

func (m *AiMapper) ModelToEntity(a *model.AIModel) *entity.AIModel {
	if a == nil {
		return nil
	}
	return &entity.AIModel{
		Id:        a.Id,
		Name:      a.Name,
		Provider:  a.Provider,
		ModelId:   a.ModelId,
		IsDefault: a.IsDefault,
		IsActive:  a.IsActive,
		MaxTokens: a.MaxTokens,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *AiMapper) ModelToModel(a *entity.AIModel) *model.AIModel {
	if a == nil {
		return nil
	}
	return &model.AIModel{
		Id:        a.Id,
		Name:      a.Name,
		Provider:  a.Provider,
		ModelId:   a.ModelId,
		IsDefault: a.IsDefault,
		IsActive:  a.IsActive,
		MaxTokens: a.MaxTokens,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *AiMapper) ConfigToEntity(c *model.AiConfiguration) *entity.AiConfiguration {
	if c == nil {
		return nil
	}
	return &entity.AiConfiguration{
		Id:          c.Id,
		Key:         c.Key,
		Value:       c.Value,
		ValueType:   c.ValueType,
		Description: c.Description,
		Category:    c.Category,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *AiMapper) ConfigToModel(c *entity.AiConfiguration) *model.AiConfiguration {
	if c == nil {
		return nil
	}
	return &model.AiConfiguration{
		Id:          c.Id,
		Key:         c.Key,
		Value:       c.Value,
		ValueType:   c.ValueType,
		Description: c.Description,
		Category:    c.Category,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
