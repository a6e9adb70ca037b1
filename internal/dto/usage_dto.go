// DTOs for usage limits and status checking
package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanInfo struct {
	Id   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
	Slug string     `json:"slug,omitempty"`
}

type UsageLimit struct {
	Used   int  `json:"used"`
	Limit  int  `json:"limit"`
	CanUse bool `json:"can_use"`
}

// UsageStatusResponse is returned by GET /api/usage
type UsageStatusResponse struct {
	Plan             PlanInfo   `json:"plan"`
	LimitSource      string     `json:"limit_source"`
	Messages         UsageLimit `json:"messages"`
	Chatbots         UsageLimit `json:"chatbots"`
	IsWithinLimits   bool       `json:"is_within_limits"`
	PercentageUsed   int        `json:"percentage_used"`
	Status           string     `json:"status"`
	ResetsAt         time.Time  `json:"resets_at"`
	UpgradeAvailable bool       `json:"upgrade_available"`
}

// PlanResponse is returned by GET /api/plans (public)
type PlanResponse struct {
	Id                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	Currency            string    `json:"currency"`
	BillingInterval     string    `json:"billing_interval"`
	MaxChatbots         int       `json:"max_chatbots"`
	MaxMessagesPerMonth int       `json:"max_messages_per_month"`
	Features            []string  `json:"features"`
	IsFree              bool      `json:"is_free"`
}

type SubscriptionResponse struct {
	Id                 uuid.UUID `json:"id"`
	PlanId             uuid.UUID `json:"plan_id"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"payment_status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
}

// --- Plan Management ---

type AdminCreatePlanRequest struct {
	Name                string   `json:"name" validate:"required"`
	Slug                string   `json:"slug" validate:"required"`
	Description         string   `json:"description"`
	Price               float64  `json:"price" validate:"gte=0"`
	Currency            string   `json:"currency" validate:"omitempty,len=3"`
	BillingInterval     string   `json:"billing_interval" validate:"required,oneof=monthly yearly"`
	MaxChatbots         int      `json:"max_chatbots" validate:"gte=0"`
	MaxMessagesPerMonth int      `json:"max_messages_per_month" validate:"gte=0"`
	Features            []string `json:"features"`
	IsFree              bool     `json:"is_free"`
	SortOrder           int      `json:"sort_order"`
}

type AdminUpdatePlanRequest struct {
	Name                *string   `json:"name,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Price               *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	MaxChatbots         *int      `json:"max_chatbots,omitempty" validate:"omitempty,gte=0"`
	MaxMessagesPerMonth *int      `json:"max_messages_per_month,omitempty" validate:"omitempty,gte=0"`
	Features            *[]string `json:"features,omitempty"`
	IsActive            *bool     `json:"is_active,omitempty"`
	SortOrder           *int      `json:"sort_order,omitempty"`
}
