package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chatbot struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"type:varchar(255);not null"`
	Description   string     `gorm:"type:text"`
	IsPublic      bool       `gorm:"not null;default:false"`
	Temperature   *float64   `gorm:"type:decimal(3,2)"`
	MaxTokens     *int
	KnowledgeBase string     `gorm:"type:text"`
	CustomPrompt  string     `gorm:"type:text"`
	ModelId       *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

func (Chatbot) TableName() string {
	return "chatbots"
}

func (m *Chatbot) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}

type ChatMessage struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ChatbotId uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserId    *uuid.UUID `gorm:"type:uuid"`
	VisitorId *string    `gorm:"type:varchar(255);index"`
	Role      string     `gorm:"type:varchar(20);not null"`
	Content   string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}

type ChatbotEvent struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ChatbotId uuid.UUID         `gorm:"type:uuid;not null;index"`
	Event     string            `gorm:"type:varchar(100);not null;index"`
	Metadata  datatypes.JSONMap `gorm:"type:json"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (ChatbotEvent) TableName() string {
	return "chatbot_events"
}

func (m *ChatbotEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}
