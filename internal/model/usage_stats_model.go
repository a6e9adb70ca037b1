package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageStats struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	MessageCount    int        `gorm:"not null;default:0"`
	WindowKey       string     `gorm:"type:varchar(7);not null"`
	LastResetAt     time.Time  `gorm:"not null"`
	LimitNotifiedAt *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (UsageStats) TableName() string {
	return "usage_stats"
}

func (m *UsageStats) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}
