package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatbotID struct {
	ChatbotID uuid.UUID
}

func (s ByChatbotID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chatbot_id = ?", s.ChatbotID)
}

type PublicChatbots struct{}

func (s PublicChatbots) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_public = ?", true)
}
