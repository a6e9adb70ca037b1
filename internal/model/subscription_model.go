package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubscriptionPlan struct {
	Id                  uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Name                string                      `gorm:"type:varchar(255);not null"`
	Slug                string                      `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description         string                      `gorm:"type:text"`
	Price               float64                     `gorm:"type:decimal(12,2);not null"`
	Currency            string                      `gorm:"type:varchar(3);not null"`
	BillingInterval     string                      `gorm:"type:varchar(20);not null"`
	MaxChatbots         int                         `gorm:"not null"`
	MaxMessagesPerMonth int                         `gorm:"not null"`
	Features            datatypes.JSONSlice[string] `gorm:"type:json"`
	IsActive            bool                        `gorm:"not null;index"`
	IsFree              bool                        `gorm:"not null;index"`
	SortOrder           int                         `gorm:"default:0"`
	CreatedAt           time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt           time.Time                   `gorm:"autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

func (m *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}

type UserSubscription struct {
	Id                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId                uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId                uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                string    `gorm:"type:varchar(50);not null;index"`
	CurrentPeriodStart    time.Time `gorm:"not null"`
	CurrentPeriodEnd      time.Time `gorm:"not null"`
	CancelAtPeriodEnd     bool      `gorm:"not null"`
	PaymentStatus         string    `gorm:"type:varchar(50);not null"`
	MidtransTransactionId *string   `gorm:"type:varchar(255)"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

func (m *UserSubscription) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.Id)
	return nil
}
