package plan

import (
	"context"
	"strings"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/database"

	"github.com/google/uuid"
)

const defaultCurrency = "IDR"

// Manager handles plan-related admin operations
type Manager struct{}

// NewManager creates a new plan manager
func NewManager() *Manager {
	return &Manager{}
}

// Create creates a new subscription plan. Only one plan may be flagged free.
func (m *Manager) Create(ctx context.Context, uow unitofwork.UnitOfWork, req dto.AdminCreatePlanRequest) (*entity.SubscriptionPlan, error) {
	if req.IsFree {
		existing, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.FreePlan{})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.New(apperror.CodeValidation, "a free plan already exists")
		}
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}

	newPlan := &entity.SubscriptionPlan{
		Name:                req.Name,
		Slug:                req.Slug,
		Description:         req.Description,
		Price:               req.Price,
		Currency:            currency,
		BillingInterval:     entity.BillingInterval(req.BillingInterval),
		MaxChatbots:         req.MaxChatbots,
		MaxMessagesPerMonth: req.MaxMessagesPerMonth,
		Features:            features,
		IsActive:            true,
		IsFree:              req.IsFree,
		SortOrder:           req.SortOrder,
	}

	if err := uow.SubscriptionRepository().CreatePlan(ctx, newPlan); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.New(apperror.CodeValidation, "a plan with this slug already exists")
		}
		return nil, err
	}

	return newPlan, nil
}

// Update updates a subscription plan
func (m *Manager) Update(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, req dto.AdminUpdatePlanRequest) (*entity.SubscriptionPlan, error) {
	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("plan not found")
	}

	// Basic Info
	if req.Name != nil && *req.Name != "" {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}

	// Limits
	if req.MaxChatbots != nil {
		plan.MaxChatbots = *req.MaxChatbots
	}
	if req.MaxMessagesPerMonth != nil {
		plan.MaxMessagesPerMonth = *req.MaxMessagesPerMonth
	}

	// Display Settings
	if req.Features != nil {
		plan.Features = *req.Features
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		plan.SortOrder = *req.SortOrder
	}

	if err := uow.SubscriptionRepository().UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// FindAll retrieves subscription plans in display order
func (m *Manager) FindAll(ctx context.Context, uow unitofwork.UnitOfWork, activeOnly bool) ([]*entity.SubscriptionPlan, error) {
	specs := []specification.Specification{specification.OrderBy{Field: "sort_order"}}
	if activeOnly {
		specs = append(specs, specification.ActivePlans{})
	}
	return uow.SubscriptionRepository().FindAllPlans(ctx, specs...)
}

// FindOne retrieves a single plan by ID
func (m *Manager) FindOne(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.SubscriptionPlan, error) {
	return uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: id})
}

func ToResponse(p *entity.SubscriptionPlan) *dto.PlanResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return &dto.PlanResponse{
		Id:                  p.Id,
		Name:                p.Name,
		Slug:                p.Slug,
		Description:         p.Description,
		Price:               p.Price,
		Currency:            p.Currency,
		BillingInterval:     string(p.BillingInterval),
		MaxChatbots:         p.MaxChatbots,
		MaxMessagesPerMonth: p.MaxMessagesPerMonth,
		Features:            features,
		IsFree:              p.IsFree,
	}
}
