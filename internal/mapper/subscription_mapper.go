package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.SubscriptionPlan) *entity.SubscriptionPlan {
	if p == nil {
		return nil
	}
	features := make([]string, len(p.Features))
	copy(features, p.Features)
	return &entity.SubscriptionPlan{
		Id:                  p.Id,
		Name:                p.Name,
		Slug:                p.Slug,
		Description:         p.Description,
		Price:               p.Price,
		Currency:            p.Currency,
		BillingInterval:     entity.BillingInterval(p.BillingInterval),
		MaxChatbots:         p.MaxChatbots,
		MaxMessagesPerMonth: p.MaxMessagesPerMonth,
		Features:            features,
		IsActive:            p.IsActive,
		IsFree:              p.IsFree,
		SortOrder:           p.SortOrder,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.SubscriptionPlan) *model.SubscriptionPlan {
	if p == nil {
		return nil
	}
	features := make([]string, len(p.Features))
	copy(features, p.Features)
	return &model.SubscriptionPlan{
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
		IsActive:            p.IsActive,
		IsFree:              p.IsFree,
		SortOrder:           p.SortOrder,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.UserSubscription) *entity.UserSubscription {
	if s == nil {
		return nil
	}
	return &entity.UserSubscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		PlanId:                s.PlanId,
		Status:                entity.SubscriptionStatus(s.Status),
		CurrentPeriodStart:    s.CurrentPeriodStart,
		CurrentPeriodEnd:      s.CurrentPeriodEnd,
		CancelAtPeriodEnd:     s.CancelAtPeriodEnd,
		PaymentStatus:         entity.PaymentStatus(s.PaymentStatus),
		MidtransTransactionId: s.MidtransTransactionId,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.UserSubscription) *model.UserSubscription {
	if s == nil {
		return nil
	}
	return &model.UserSubscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		PlanId:                s.PlanId,
		Status:                string(s.Status),
		CurrentPeriodStart:    s.CurrentPeriodStart,
		CurrentPeriodEnd:      s.CurrentPeriodEnd,
		CancelAtPeriodEnd:     s.CancelAtPeriodEnd,
		PaymentStatus:         string(s.PaymentStatus),
		MidtransTransactionId: s.MidtransTransactionId,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) UsageToEntity(u *model.UsageStats) *entity.UsageStats {
	if u == nil {
		return nil
	}
	return &entity.UsageStats{
		Id:              u.Id,
		UserId:          u.UserId,
		MessageCount:    u.MessageCount,
		WindowKey:       u.WindowKey,
		LastResetAt:     u.LastResetAt,
		LimitNotifiedAt: u.LimitNotifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
