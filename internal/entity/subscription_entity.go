package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type PaymentStatus string
type BillingInterval string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusFree    PaymentStatus = "free"

	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

// FreePlanDuration is the period granted by free-plan auto-assignment.
const FreePlanDuration = 10 * 365 * 24 * time.Hour

// PeriodEnd returns the end of one billing period starting at start.
func (b BillingInterval) PeriodEnd(start time.Time) time.Time {
	switch b {
	case BillingIntervalYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

type SubscriptionPlan struct {
	Id                  uuid.UUID
	Name                string
	Slug                string
	Description         string
	Price               float64
	Currency            string
	BillingInterval     BillingInterval
	MaxChatbots         int
	MaxMessagesPerMonth int
	Features            []string
	IsActive            bool
	IsFree              bool
	SortOrder           int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type UserSubscription struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	PlanId                uuid.UUID
	Status                SubscriptionStatus
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
	CancelAtPeriodEnd     bool
	PaymentStatus         PaymentStatus
	MidtransTransactionId *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsCurrent reports whether the subscription is active and not yet expired.
func (s *UserSubscription) IsCurrent(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && s.CurrentPeriodEnd.After(now)
}
