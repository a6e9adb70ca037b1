package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AIModel struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Provider  string    `gorm:"type:varchar(50);not null"`
	ModelId   string    `gorm:"type:varchar(255);not null"`
	IsDefault bool      `gorm:"not null;default:false;index"`
	IsActive  bool      `gorm:"not null"`
	MaxTokens int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AIModel) TableName() string {
	return "ai_models"
}

func (m *AIModel) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}
