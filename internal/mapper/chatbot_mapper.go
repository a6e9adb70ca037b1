package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type ChatbotMapper struct{}

func NewChatbotMapper() *ChatbotMapper {
	return &ChatbotMapper{}
}

func (m *ChatbotMapper) ToEntity(c *model.Chatbot) *entity.Chatbot {
	if c == nil {
		return nil
	}
	return &entity.Chatbot{
		Id:            c.Id,
		UserId:        c.UserId,
		Name:          c.Name,
		Description:   c.Description,
		IsPublic:      c.IsPublic,
		Temperature:   c.Temperature,
		MaxTokens:     c.MaxTokens,
		KnowledgeBase: c.KnowledgeBase,
		CustomPrompt:  c.CustomPrompt,
		ModelId:       c.ModelId,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (m *ChatbotMapper) ToModel(c *entity.Chatbot) *model.Chatbot {
	if c == nil {
		return nil
	}
	return &model.Chatbot{
		Id:            c.Id,
		UserId:        c.UserId,
		Name:          c.Name,
		Description:   c.Description,
		IsPublic:      c.IsPublic,
		Temperature:   c.Temperature,
		MaxTokens:     c.MaxTokens,
		KnowledgeBase: c.KnowledgeBase,
		CustomPrompt:  c.CustomPrompt,
		ModelId:       c.ModelId,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (m *ChatbotMapper) MessageToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:        c.Id,
		ChatbotId: c.ChatbotId,
		UserId:    c.UserId,
		VisitorId: c.VisitorId,
		Role:      c.Role,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChatbotMapper) MessageToModel(c *entity.ChatMessage) *model.ChatMessage {
	if c == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:        c.Id,
		ChatbotId: c.ChatbotId,
		UserId:    c.UserId,
		VisitorId: c.VisitorId,
		Role:      c.Role,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChatbotMapper) EventToModel(e *entity.ChatbotEvent) *model.ChatbotEvent {
	if e == nil {
		return nil
	}
	return &model.ChatbotEvent{
		Id:        e.Id,
		ChatbotId: e.ChatbotId,
		Event:     e.Event,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ChatbotMapper) EventToEntity(e *model.ChatbotEvent) *entity.ChatbotEvent {
	if e == nil {
		return nil
	}
	return &entity.ChatbotEvent{
		Id:        e.Id,
		ChatbotId: e.ChatbotId,
		Event:     e.Event,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
