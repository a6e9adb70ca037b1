package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/database"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/metrics"

	"github.com/google/uuid"
)

const (
	actionCheck         = "check"
	actionConsume       = "consume_message"
	actionCreateChatbot = "create_chatbot"
)

var errUsageRowMissing = errors.New("usage stats row missing after upsert")

// IEntitlementService decides whether a user may send a message or create a
// chatbot under their current plan. Reads never fail: they fall back to
// conservative answers tagged as degraded.
type IEntitlementService interface {
	GetUserLimits(ctx context.Context, userId uuid.UUID) entitlement.Limits
	GetUserUsage(ctx context.Context, userId uuid.UUID) (entitlement.Usage, error)
	CheckUserLimits(ctx context.Context, userId uuid.UUID) entitlement.Decision
	IncrementMessageCount(ctx context.Context, userId uuid.UUID) error

	// TryConsumeMessage takes one message from the user's monthly quota in a
	// single conditional update. The returned decision describes the state
	// before the message was taken.
	TryConsumeMessage(ctx context.Context, userId uuid.UUID) (entitlement.Decision, error)
	RefundMessage(ctx context.Context, userId uuid.UUID) error
	CheckCanCreateChatbot(ctx context.Context, userId uuid.UUID) error

	AssignFreePlanToUser(ctx context.Context, userId uuid.UUID) error
	ChangePlan(ctx context.Context, userId, planId uuid.UUID, periodEnd time.Time) (*entity.UserSubscription, error)
	ActivateSubscription(ctx context.Context, subscriptionId uuid.UUID) (*entity.UserSubscription, error)
}

type entitlementService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     logger.ILogger
	now        func() time.Time
}

func NewEntitlementService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) IEntitlementService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &entitlementService{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// --- Reads ---

func (s *entitlementService) GetUserLimits(ctx context.Context, userId uuid.UUID) entitlement.Limits {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	limits, err := s.resolveLimits(ctx, uow, userId, s.now())
	if err != nil {
		s.logger.Warn("ENTITLEMENT", "Falling back to default limits", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return entitlement.DefaultLimits()
	}
	return limits
}

func (s *entitlementService) GetUserUsage(ctx context.Context, userId uuid.UUID) (entitlement.Usage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	usage, _, err := s.loadUsage(ctx, uow, userId, s.now())
	return usage, err
}

func (s *entitlementService) CheckUserLimits(ctx context.Context, userId uuid.UUID) entitlement.Decision {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limits, err := s.resolveLimits(ctx, uow, userId, now)
	if err != nil {
		return s.degraded(actionCheck, userId, err)
	}

	usage, _, err := s.loadUsage(ctx, uow, userId, now)
	if err != nil {
		return s.degraded(actionCheck, userId, err)
	}

	decision := entitlement.Decide(limits, usage)
	s.metrics.ObserveDecision(actionCheck, outcomeOf(decision.IsWithinLimits))
	return decision
}

// --- Writes ---

func (s *entitlementService) IncrementMessageCount(ctx context.Context, userId uuid.UUID) error {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.ensureWindow(ctx, uow, userId, now); err != nil {
		return err
	}
	return uow.UsageStatsRepository().Increment(ctx, userId)
}

func (s *entitlementService) TryConsumeMessage(ctx context.Context, userId uuid.UUID) (entitlement.Decision, error) {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}
	defer uow.Rollback()

	limits, err := s.resolveLimits(ctx, uow, userId, now)
	if err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	if err := s.ensureWindow(ctx, uow, userId, now); err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	consumed, err := uow.UsageStatsRepository().IncrementIfBelow(ctx, userId, limits.MaxMessagesPerMonth)
	if err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	stats, err := uow.UsageStatsRepository().FindByUserId(ctx, userId)
	if err == nil && stats == nil {
		err = errUsageRowMissing
	}
	if err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	chatbotCount, err := uow.ChatbotRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	if err := uow.Commit(); err != nil {
		return s.degraded(actionConsume, userId, err), errUnverifiable(err)
	}

	before := stats.MessageCount
	if consumed {
		before--
	}
	decision := entitlement.Decide(limits, entitlement.Usage{MessageCount: before, ChatbotCount: int(chatbotCount)})

	if !consumed {
		s.metrics.ObserveDecision(actionConsume, metrics.OutcomeDenied)
		s.notifyLimitReached(ctx, userId, limits, stats.MessageCount, now)
		return decision, messageLimitError(limits.MaxMessagesPerMonth, stats.MessageCount, now)
	}

	s.metrics.ObserveDecision(actionConsume, metrics.OutcomeAllowed)
	return decision, nil
}

func (s *entitlementService) RefundMessage(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UsageStatsRepository().Decrement(ctx, userId)
}

func (s *entitlementService) CheckCanCreateChatbot(ctx context.Context, userId uuid.UUID) error {
	decision := s.CheckUserLimits(ctx, userId)
	if decision.IsDegraded() {
		s.metrics.ObserveDecision(actionCreateChatbot, metrics.OutcomeDegraded)
		return apperror.New(apperror.CodeUpstreamFailure, "Unable to verify usage limits")
	}
	if !decision.IsWithinChatbotLimit {
		s.metrics.ObserveDecision(actionCreateChatbot, metrics.OutcomeDenied)
		return apperror.New(apperror.CodeLimitExceeded, "Chatbot limit reached for your plan").
			WithDetails(dto.LimitExceededData{
				Limit:            decision.Limits.MaxChatbots,
				Used:             decision.Usage.ChatbotCount,
				ShowModalPricing: true,
			})
	}
	s.metrics.ObserveDecision(actionCreateChatbot, metrics.OutcomeAllowed)
	return nil
}

// --- Subscriptions ---

func (s *entitlementService) AssignFreePlanToUser(ctx context.Context, userId uuid.UUID) error {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	subRepo := uow.SubscriptionRepository()

	existing, err := subRepo.FindOneSubscription(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.BySubscriptionStatus{Status: string(entity.SubscriptionStatusActive)},
	)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	freePlan, err := subRepo.FindOnePlan(ctx, specification.FreePlan{}, specification.OrderBy{Field: "sort_order"})
	if err != nil {
		return err
	}
	if freePlan == nil {
		return apperror.New(apperror.CodeConfigurationMissing, "No free plan is configured")
	}

	sub := &entity.UserSubscription{
		UserId:             userId,
		PlanId:             freePlan.Id,
		Status:             entity.SubscriptionStatusActive,
		PaymentStatus:      entity.PaymentStatusFree,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(entity.FreePlanDuration),
	}
	if err := subRepo.CreateSubscription(ctx, sub); err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent call assigned the plan first.
			return nil
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return nil
		}
		return err
	}

	s.publish(ctx, events.New(events.TypeSubscriptionActivated, map[string]interface{}{
		"user_id":         userId.String(),
		"subscription_id": sub.Id.String(),
		"plan_id":         freePlan.Id.String(),
		"plan_name":       freePlan.Name,
	}))
	return nil
}

func (s *entitlementService) ChangePlan(ctx context.Context, userId, planId uuid.UUID, periodEnd time.Time) (*entity.UserSubscription, error) {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	subRepo := uow.SubscriptionRepository()

	plan, err := subRepo.FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("Plan not found")
	}
	if periodEnd.IsZero() {
		periodEnd = plan.BillingInterval.PeriodEnd(now)
		if plan.IsFree {
			periodEnd = now.Add(entity.FreePlanDuration)
		}
	}

	if _, err := subRepo.CancelActiveSubscriptions(ctx, userId, nil, now); err != nil {
		return nil, err
	}

	paymentStatus := entity.PaymentStatusPaid
	if plan.IsFree {
		paymentStatus = entity.PaymentStatusFree
	}
	sub := &entity.UserSubscription{
		UserId:             userId,
		PlanId:             plan.Id,
		Status:             entity.SubscriptionStatusActive,
		PaymentStatus:      paymentStatus,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
	}
	if err := subRepo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeSubscriptionChanged, map[string]interface{}{
		"user_id":         userId.String(),
		"subscription_id": sub.Id.String(),
		"plan_id":         plan.Id.String(),
		"plan_name":       plan.Name,
	}))
	return sub, nil
}

// ActivateSubscription turns a pending subscription into the user's only
// active one. Any other status is returned unchanged.
func (s *entitlementService) ActivateSubscription(ctx context.Context, subscriptionId uuid.UUID) (*entity.UserSubscription, error) {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	subRepo := uow.SubscriptionRepository()

	sub, err := subRepo.FindOneSubscription(ctx, specification.ByID{ID: subscriptionId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NotFound("Subscription not found")
	}
	// Only pending subscriptions move forward. Active ones are already done
	// and canceled ones stay canceled when a payment notice is replayed.
	if sub.Status != entity.SubscriptionStatusPending {
		return sub, nil
	}

	plan, err := subRepo.FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("Plan not found")
	}

	if _, err := subRepo.CancelActiveSubscriptions(ctx, sub.UserId, &sub.Id, now); err != nil {
		return nil, err
	}

	sub.Status = entity.SubscriptionStatusActive
	sub.PaymentStatus = entity.PaymentStatusPaid
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = plan.BillingInterval.PeriodEnd(now)
	sub.CancelAtPeriodEnd = false
	if err := subRepo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeSubscriptionActivated, map[string]interface{}{
		"user_id":         sub.UserId.String(),
		"subscription_id": sub.Id.String(),
		"plan_id":         plan.Id.String(),
		"plan_name":       plan.Name,
	}))
	return sub, nil
}

// --- Helpers ---

// resolveLimits walks current subscription, then the free plan, then the
// hardcoded default.
func (s *entitlementService) resolveLimits(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, now time.Time) (entitlement.Limits, error) {
	subRepo := uow.SubscriptionRepository()

	sub, err := subRepo.FindOneSubscription(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.CurrentSubscription{Now: now},
		specification.OrderBy{Field: "current_period_end", Desc: true},
	)
	if err != nil {
		return entitlement.DefaultLimits(), fmt.Errorf("find subscription: %w", err)
	}

	if sub != nil {
		plan, err := subRepo.FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
		if err != nil {
			return entitlement.DefaultLimits(), fmt.Errorf("find plan: %w", err)
		}
		if plan != nil {
			return limitsFromPlan(plan, entitlement.SourceSubscription), nil
		}
	}

	freePlan, err := subRepo.FindOnePlan(ctx, specification.FreePlan{}, specification.OrderBy{Field: "sort_order"})
	if err != nil {
		return entitlement.DefaultLimits(), fmt.Errorf("find free plan: %w", err)
	}
	if freePlan != nil {
		return limitsFromPlan(freePlan, entitlement.SourceFreePlan), nil
	}

	return entitlement.DefaultLimits(), nil
}

func limitsFromPlan(plan *entity.SubscriptionPlan, source entitlement.LimitSource) entitlement.Limits {
	return entitlement.Limits{
		MaxChatbots:         plan.MaxChatbots,
		MaxMessagesPerMonth: plan.MaxMessagesPerMonth,
		PlanName:            plan.Name,
		Source:              source,
	}
}

// ensureWindow creates the usage row if absent and zeroes it when it belongs
// to an older month.
func (s *entitlementService) ensureWindow(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, now time.Time) error {
	repo := uow.UsageStatsRepository()
	windowKey := entitlement.CurrentWindowKey(now).String()

	if err := repo.EnsureExists(ctx, userId, windowKey, now); err != nil && !database.IsUniqueViolation(err) {
		return fmt.Errorf("ensure usage stats: %w", err)
	}

	reset, err := repo.ResetIfStale(ctx, userId, windowKey, now)
	if err != nil {
		return fmt.Errorf("reset usage stats: %w", err)
	}
	if reset {
		s.logger.Info("ENTITLEMENT", "Monthly usage reset", map[string]interface{}{
			"user_id": userId.String(),
			"window":  windowKey,
		})
	}
	return nil
}

func (s *entitlementService) loadUsage(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, now time.Time) (entitlement.Usage, *entity.UsageStats, error) {
	if err := s.ensureWindow(ctx, uow, userId, now); err != nil {
		return entitlement.Usage{}, nil, err
	}

	stats, err := uow.UsageStatsRepository().FindByUserId(ctx, userId)
	if err != nil {
		return entitlement.Usage{}, nil, err
	}
	if stats == nil {
		return entitlement.Usage{}, nil, errUsageRowMissing
	}

	chatbotCount, err := uow.ChatbotRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return entitlement.Usage{}, nil, fmt.Errorf("count chatbots: %w", err)
	}

	usage := entitlement.Usage{
		MessageCount: stats.MessageCount,
		ChatbotCount: int(chatbotCount),
	}
	if entitlement.NeedsReset(stats.LastResetAt, now) {
		usage.MessageCount = 0
	}
	return usage.Normalize(), stats, nil
}

func (s *entitlementService) degraded(action string, userId uuid.UUID, err error) entitlement.Decision {
	s.logger.Error("ENTITLEMENT", "Could not verify limits, denying", map[string]interface{}{
		"action":  action,
		"user_id": userId.String(),
		"error":   err.Error(),
	})
	s.metrics.ObserveDecision(action, metrics.OutcomeDegraded)
	return entitlement.Denied()
}

// notifyLimitReached publishes usage.limit_reached once per window.
func (s *entitlementService) notifyLimitReached(ctx context.Context, userId uuid.UUID, limits entitlement.Limits, used int, now time.Time) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	first, err := uow.UsageStatsRepository().MarkLimitNotified(ctx, userId, now)
	if err != nil {
		s.logger.Warn("ENTITLEMENT", "Failed to mark limit notification", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return
	}
	if !first {
		return
	}

	window := entitlement.CurrentWindowKey(now)
	s.publish(ctx, events.New(events.TypeUsageLimitReached, map[string]interface{}{
		"user_id":   userId.String(),
		"plan_name": limits.PlanName,
		"limit":     limits.MaxMessagesPerMonth,
		"used":      used,
		"window":    window.String(),
		"resets_at": window.End().Format(time.RFC3339),
	}))
}

func (s *entitlementService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.IncTelemetryDropped("publish_error")
		s.logger.Warn("ENTITLEMENT", "Failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func messageLimitError(limit, used int, now time.Time) error {
	resetAfter := entitlement.CurrentWindowKey(now).End()
	return apperror.New(apperror.CodeLimitExceeded, "Monthly message limit reached").
		WithDetails(dto.LimitExceededData{
			Limit:            limit,
			Used:             used,
			ResetAfter:       &resetAfter,
			ShowModalPricing: true,
		})
}

func errUnverifiable(err error) error {
	return apperror.Wrap(apperror.CodeUpstreamFailure, err, "Unable to verify usage limits")
}

func outcomeOf(allowed bool) string {
	if allowed {
		return metrics.OutcomeAllowed
	}
	return metrics.OutcomeDenied
}
