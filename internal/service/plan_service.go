// Service for plan listing, usage status and plan administration
package service

import (
	"context"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/admin/plan"
	"ai-chatbot-be/pkg/entitlement"

	"github.com/google/uuid"
)

type PlanService interface {
	// Public
	GetActivePlans(ctx context.Context) ([]*dto.PlanResponse, error)

	// User
	GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error)

	// Admin
	GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error)
	CreatePlan(ctx context.Context, req dto.AdminCreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, req dto.AdminUpdatePlanRequest) (*dto.PlanResponse, error)
}

type planService struct {
	uowFactory  unitofwork.RepositoryFactory
	entitlement IEntitlementService
	manager     *plan.Manager
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory, entitlementService IEntitlementService) PlanService {
	return &planService{
		uowFactory:  uowFactory,
		entitlement: entitlementService,
		manager:     plan.NewManager(),
	}
}

func (s *planService) GetActivePlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	return s.listPlans(ctx, true)
}

func (s *planService) GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	return s.listPlans(ctx, false)
}

func (s *planService) listPlans(ctx context.Context, activeOnly bool) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plans, err := s.manager.FindAll(ctx, uow, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		result = append(result, plan.ToResponse(p))
	}
	return result, nil
}

// GetUsageStatus returns current usage vs limits for a user
func (s *planService) GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error) {
	decision := s.entitlement.CheckUserLimits(ctx, userId)
	now := time.Now().UTC()

	planInfo := dto.PlanInfo{Name: decision.Limits.PlanName}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.CurrentSubscription{Now: now},
		specification.OrderBy{Field: "current_period_end", Desc: true},
	)
	if err == nil && sub != nil {
		if p, err := s.manager.FindOne(ctx, uow, sub.PlanId); err == nil && p != nil {
			planInfo = dto.PlanInfo{Id: &p.Id, Name: p.Name, Slug: p.Slug}
		}
	}
	if planInfo.Name == "" {
		planInfo.Name = "Default"
	}

	upgradeAvailable := false
	if plans, err := s.manager.FindAll(ctx, uow, true); err == nil {
		for _, p := range plans {
			if p.MaxMessagesPerMonth > decision.Limits.MaxMessagesPerMonth {
				upgradeAvailable = true
				break
			}
		}
	}

	return &dto.UsageStatusResponse{
		Plan:        planInfo,
		LimitSource: string(decision.Limits.Source),
		Messages: dto.UsageLimit{
			Used:   decision.Usage.MessageCount,
			Limit:  decision.Limits.MaxMessagesPerMonth,
			CanUse: decision.IsWithinMessageLimit,
		},
		Chatbots: dto.UsageLimit{
			Used:   decision.Usage.ChatbotCount,
			Limit:  decision.Limits.MaxChatbots,
			CanUse: decision.IsWithinChatbotLimit,
		},
		IsWithinLimits:   decision.IsWithinLimits,
		PercentageUsed:   decision.PercentageUsed,
		Status:           string(decision.Status),
		ResetsAt:         entitlement.CurrentWindowKey(now).End(),
		UpgradeAvailable: upgradeAvailable,
	}, nil
}

func (s *planService) CreatePlan(ctx context.Context, req dto.AdminCreatePlanRequest) (*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	created, err := s.manager.Create(ctx, uow, req)
	if err != nil {
		return nil, err
	}
	return plan.ToResponse(created), nil
}

func (s *planService) UpdatePlan(ctx context.Context, id uuid.UUID, req dto.AdminUpdatePlanRequest) (*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := s.manager.Update(ctx, uow, id, req)
	if err != nil {
		return nil, err
	}
	return plan.ToResponse(updated), nil
}
