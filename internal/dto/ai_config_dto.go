package dto

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// AI Configuration DTOs
// ============================================================================

// AiConfigurationResponse represents an AI configuration entry
type AiConfigurationResponse struct {
	Id          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateAiConfigurationRequest for updating a configuration value
type UpdateAiConfigurationRequest struct {
	Value string `json:"value" validate:"required"`
}

// ============================================================================
// AI Model DTOs
// ============================================================================

type AiModelResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	ModelId   string    `json:"model_id"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	MaxTokens int       `json:"max_tokens"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAiModelRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Provider  string `json:"provider" validate:"required,oneof=ollama openai huggingface"`
	ModelId   string `json:"model_id" validate:"required,max=200"`
	MaxTokens int    `json:"max_tokens" validate:"gte=0"`
	IsActive  *bool  `json:"is_active"`
}

type UpdateAiModelRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Provider  *string `json:"provider" validate:"omitempty,oneof=ollama openai huggingface"`
	ModelId   *string `json:"model_id" validate:"omitempty,min=1,max=200"`
	MaxTokens *int    `json:"max_tokens" validate:"omitempty,gte=0"`
	IsActive  *bool   `json:"is_active"`
}
