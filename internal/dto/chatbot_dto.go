package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatbotRequest struct {
	Name          string     `json:"name" validate:"required,max=120"`
	Description   string     `json:"description" validate:"max=500"`
	IsPublic      bool       `json:"is_public"`
	Temperature   *float64   `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens     *int       `json:"max_tokens" validate:"omitempty,gte=1,lte=32000"`
	KnowledgeBase string     `json:"knowledge_base" validate:"max=100000"`
	CustomPrompt  string     `json:"custom_prompt" validate:"max=20000"`
	ModelId       *uuid.UUID `json:"model_id"`
}

// UpdateChatbotRequest only touches the fields that are present.
type UpdateChatbotRequest struct {
	Name          *string    `json:"name" validate:"omitempty,min=1,max=120"`
	Description   *string    `json:"description" validate:"omitempty,max=500"`
	IsPublic      *bool      `json:"is_public"`
	Temperature   *float64   `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens     *int       `json:"max_tokens" validate:"omitempty,gte=1,lte=32000"`
	KnowledgeBase *string    `json:"knowledge_base" validate:"omitempty,max=100000"`
	CustomPrompt  *string    `json:"custom_prompt" validate:"omitempty,max=20000"`
	ModelId       *uuid.UUID `json:"model_id"`
	ClearModel    bool       `json:"clear_model"`
}

type ChatbotResponse struct {
	Id            uuid.UUID  `json:"id"`
	UserId        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	IsPublic      bool       `json:"is_public"`
	Temperature   *float64   `json:"temperature,omitempty"`
	MaxTokens     *int       `json:"max_tokens,omitempty"`
	KnowledgeBase string     `json:"knowledge_base"`
	CustomPrompt  string     `json:"custom_prompt"`
	ModelId       *uuid.UUID `json:"model_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PublicChatbotResponse is what the embed widget may see.
type PublicChatbotResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// --- Chat ---

type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant model system"`
	Content string `json:"content" validate:"required,max=20000"`
}

type ChatRequest struct {
	Messages []ChatMessageDTO `json:"messages" validate:"required,min=1,max=100,dive"`
}

type PublicChatRequest struct {
	Messages  []ChatMessageDTO `json:"messages" validate:"required,min=1,max=100,dive"`
	VisitorId string           `json:"visitor_id" validate:"omitempty,max=128"`
}

type ChatResponse struct {
	ChatbotId uuid.UUID      `json:"chatbot_id"`
	Message   ChatMessageDTO `json:"message"`
	Model     string         `json:"model"`
}

type ChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	VisitorId *string   `json:"visitor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Limit Exceeded ---

// LimitExceededData is the data payload of a 402 response.
type LimitExceededData struct {
	Limit            int        `json:"limit"`
	Used             int        `json:"used"`
	ResetAfter       *time.Time `json:"reset_after,omitempty"`
	ShowModalPricing bool       `json:"show_modal_pricing"`
}
