package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEntitlementService(factory unitofwork.RepositoryFactory, pub events.Publisher, now time.Time) *entitlementService {
	svc := NewEntitlementService(factory, pub, nil, logger.NewNopLogger()).(*entitlementService)
	svc.now = func() time.Time { return now }
	return svc
}

func setMessageCount(t *testing.T, db *gorm.DB, userId uuid.UUID, count int) {
	t.Helper()
	require.NoError(t, db.Model(&model.UsageStats{}).Where("user_id = ?", userId).Update("message_count", count).Error)
}

func activeSubscriptions(t *testing.T, factory unitofwork.RepositoryFactory, userId uuid.UUID) []*entity.UserSubscription {
	t.Helper()
	ctx := context.Background()
	subs, err := factory.NewUnitOfWork(ctx).SubscriptionRepository().FindAllSubscriptions(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.BySubscriptionStatus{Status: string(entity.SubscriptionStatusActive)},
	)
	require.NoError(t, err)
	return subs
}

func TestGetUserLimits(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	t.Run("no subscription and no free plan uses defaults", func(t *testing.T) {
		_, factory := newTestDB(t)
		svc := newTestEntitlementService(factory, nil, now)

		limits := svc.GetUserLimits(ctx, uuid.New())
		assert.Equal(t, 1, limits.MaxChatbots)
		assert.Equal(t, 50, limits.MaxMessagesPerMonth)
		assert.Equal(t, entitlement.SourceDefault, limits.Source)
	})

	t.Run("free plan is the fallback", func(t *testing.T) {
		_, factory := newTestDB(t)
		seedPlan(t, factory, "free", true, 2, 100)
		svc := newTestEntitlementService(factory, nil, now)

		limits := svc.GetUserLimits(ctx, uuid.New())
		assert.Equal(t, 2, limits.MaxChatbots)
		assert.Equal(t, 100, limits.MaxMessagesPerMonth)
		assert.Equal(t, entitlement.SourceFreePlan, limits.Source)
	})

	t.Run("expired subscription is ignored", func(t *testing.T) {
		_, factory := newTestDB(t)
		pro := seedPlan(t, factory, "pro", false, 10, 1000)
		userId := uuid.New()

		sub := &entity.UserSubscription{
			UserId:             userId,
			PlanId:             pro.Id,
			Status:             entity.SubscriptionStatusActive,
			PaymentStatus:      entity.PaymentStatusPaid,
			CurrentPeriodStart: now.AddDate(0, -2, 0),
			CurrentPeriodEnd:   now.AddDate(0, -1, 0),
		}
		require.NoError(t, factory.NewUnitOfWork(ctx).SubscriptionRepository().CreateSubscription(ctx, sub))

		svc := newTestEntitlementService(factory, nil, now)
		assert.Equal(t, entitlement.SourceDefault, svc.GetUserLimits(ctx, userId).Source)
	})
}

func TestGetUserUsage_MonthlyReset(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	userId := uuid.New()

	september := time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)
	svc := newTestEntitlementService(factory, nil, september)

	for i := 0; i < 7; i++ {
		require.NoError(t, svc.IncrementMessageCount(ctx, userId))
	}
	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 7, usage.MessageCount)

	svc.now = func() time.Time { return time.Date(2026, 10, 1, 0, 0, 1, 0, time.UTC) }
	usage, err = svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.MessageCount)

	stats, err := factory.NewUnitOfWork(ctx).UsageStatsRepository().FindByUserId(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, "2026-10", stats.WindowKey)
}

func TestGetUserUsage_CountsChatbotsLive(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	seedChatbot(t, factory, &entity.Chatbot{UserId: userId, Name: "one"})
	seedChatbot(t, factory, &entity.Chatbot{UserId: userId, Name: "two"})
	seedChatbot(t, factory, &entity.Chatbot{UserId: uuid.New(), Name: "someone else's"})

	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.ChatbotCount)
	assert.Equal(t, 0, usage.MessageCount)
}

func TestIncrementMessageCount_Sequential(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	const n = 12
	for i := 0; i < n; i++ {
		require.NoError(t, svc.IncrementMessageCount(ctx, userId))
	}

	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, n, usage.MessageCount)
}

func TestCheckUserLimits(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	seedPlan(t, factory, "free", true, 1, 50)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	_, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)

	setMessageCount(t, db, userId, 49)
	d := svc.CheckUserLimits(ctx, userId)
	assert.True(t, d.IsWithinMessageLimit)
	assert.True(t, d.IsWithinLimits)
	assert.Equal(t, 98, d.PercentageUsed)
	assert.Equal(t, entitlement.StatusVerified, d.Status)

	setMessageCount(t, db, userId, 50)
	d = svc.CheckUserLimits(ctx, userId)
	assert.False(t, d.IsWithinMessageLimit)
	assert.False(t, d.IsWithinLimits)
	assert.Equal(t, 100, d.PercentageUsed)
}

func TestCheckUserLimits_DegradedWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&model.UsageStats{}))

	svc := newTestEntitlementService(factory, nil, time.Now().UTC())
	userId := uuid.New()

	d := svc.CheckUserLimits(ctx, userId)
	assert.True(t, d.IsDegraded())
	assert.False(t, d.IsWithinLimits)
	assert.Zero(t, d.PercentageUsed)

	d, err := svc.TryConsumeMessage(ctx, userId)
	assert.True(t, d.IsDegraded())
	assert.True(t, apperror.IsCode(err, apperror.CodeUpstreamFailure))

	assert.True(t, apperror.IsCode(svc.CheckCanCreateChatbot(ctx, userId), apperror.CodeUpstreamFailure))
}

func TestTryConsumeMessage_PaidPlanBoundary(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	svc := newTestEntitlementService(factory, pub, now)

	pro := seedPlan(t, factory, "pro", false, 5, 1000)
	userId := uuid.New()
	_, err := svc.ChangePlan(ctx, userId, pro.Id, time.Time{})
	require.NoError(t, err)

	_, err = svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	setMessageCount(t, db, userId, 999)

	d, err := svc.TryConsumeMessage(ctx, userId)
	require.NoError(t, err)
	assert.True(t, d.IsWithinMessageLimit)
	assert.Equal(t, 999, d.Usage.MessageCount)

	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 1000, usage.MessageCount)

	d, err = svc.TryConsumeMessage(ctx, userId)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLimitExceeded))
	assert.False(t, d.IsWithinMessageLimit)
	assert.False(t, d.IsDegraded())

	details, ok := apperror.As(err).Details().(dto.LimitExceededData)
	require.True(t, ok)
	assert.Equal(t, 1000, details.Limit)
	assert.Equal(t, 1000, details.Used)
	assert.True(t, details.ShowModalPricing)
	require.NotNil(t, details.ResetAfter)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), *details.ResetAfter)

	_, err = svc.TryConsumeMessage(ctx, userId)
	assert.True(t, apperror.IsCode(err, apperror.CodeLimitExceeded))

	usage, err = svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 1000, usage.MessageCount, "denied attempts never increment")
	assert.Len(t, pub.ofType(events.TypeUsageLimitReached), 1, "limit notice fires once per window")
}

func TestTryConsumeMessage_ConcurrentNeverOvershoots(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	seedPlan(t, factory, "free", true, 1, 5)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.TryConsumeMessage(ctx, userId); err == nil {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, consumed)
	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 5, usage.MessageCount)
}

func TestRefundMessage_NeverNegative(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	_, err := svc.TryConsumeMessage(ctx, userId)
	require.NoError(t, err)

	require.NoError(t, svc.RefundMessage(ctx, userId))
	require.NoError(t, svc.RefundMessage(ctx, userId))

	usage, err := svc.GetUserUsage(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.MessageCount)
}

func TestCheckCanCreateChatbot(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	userId := uuid.New()
	svc := newTestEntitlementService(factory, nil, time.Now().UTC())

	require.NoError(t, svc.CheckCanCreateChatbot(ctx, userId))

	seedChatbot(t, factory, &entity.Chatbot{UserId: userId, Name: "first"})

	err := svc.CheckCanCreateChatbot(ctx, userId)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLimitExceeded))

	details, ok := apperror.As(err).Details().(dto.LimitExceededData)
	require.True(t, ok)
	assert.Equal(t, 1, details.Limit)
	assert.Equal(t, 1, details.Used)
	assert.Nil(t, details.ResetAfter)
}

func TestAssignFreePlanToUser(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		_, factory := newTestDB(t)
		free := seedPlan(t, factory, "free", true, 1, 50)
		pub := &recordingPublisher{}
		now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
		svc := newTestEntitlementService(factory, pub, now)
		userId := uuid.New()

		require.NoError(t, svc.AssignFreePlanToUser(ctx, userId))
		require.NoError(t, svc.AssignFreePlanToUser(ctx, userId))

		subs := activeSubscriptions(t, factory, userId)
		require.Len(t, subs, 1)
		assert.Equal(t, free.Id, subs[0].PlanId)
		assert.Equal(t, entity.PaymentStatusFree, subs[0].PaymentStatus)
		assert.True(t, subs[0].CurrentPeriodEnd.After(now.AddDate(9, 11, 0)))
		assert.Len(t, pub.ofType(events.TypeSubscriptionActivated), 1)

		limits := svc.GetUserLimits(ctx, userId)
		assert.Equal(t, entitlement.SourceSubscription, limits.Source)
	})

	t.Run("missing free plan fails loudly", func(t *testing.T) {
		_, factory := newTestDB(t)
		svc := newTestEntitlementService(factory, nil, time.Now().UTC())

		err := svc.AssignFreePlanToUser(ctx, uuid.New())
		assert.True(t, apperror.IsCode(err, apperror.CodeConfigurationMissing))
	})
}

func TestChangePlan_SingleActiveSubscription(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	seedPlan(t, factory, "free", true, 1, 50)
	pro := seedPlan(t, factory, "pro", false, 5, 1000)
	business := seedPlan(t, factory, "business", false, 20, 10000)
	svc := newTestEntitlementService(factory, nil, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	userId := uuid.New()

	require.NoError(t, svc.AssignFreePlanToUser(ctx, userId))

	_, err := svc.ChangePlan(ctx, userId, pro.Id, time.Time{})
	require.NoError(t, err)
	sub, err := svc.ChangePlan(ctx, userId, business.Id, time.Time{})
	require.NoError(t, err)
	require.NoError(t, svc.AssignFreePlanToUser(ctx, userId))

	subs := activeSubscriptions(t, factory, userId)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.Id, subs[0].Id)
	assert.Equal(t, time.Date(2026, 11, 17, 9, 0, 0, 0, time.UTC), subs[0].CurrentPeriodEnd.UTC())

	limits := svc.GetUserLimits(ctx, userId)
	assert.Equal(t, 10000, limits.MaxMessagesPerMonth)
	assert.Equal(t, "Business", limits.PlanName)

	_, err = svc.ChangePlan(ctx, userId, uuid.New(), time.Time{})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Len(t, activeSubscriptions(t, factory, userId), 1)
}

func TestActivateSubscription(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	seedPlan(t, factory, "free", true, 1, 50)
	pro := seedPlan(t, factory, "pro", false, 5, 1000)
	svc := newTestEntitlementService(factory, nil, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	userId := uuid.New()

	require.NoError(t, svc.AssignFreePlanToUser(ctx, userId))

	pending := &entity.UserSubscription{
		UserId:             userId,
		PlanId:             pro.Id,
		Status:             entity.SubscriptionStatusPending,
		PaymentStatus:      entity.PaymentStatusPending,
		CurrentPeriodStart: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, factory.NewUnitOfWork(ctx).SubscriptionRepository().CreateSubscription(ctx, pending))

	activated, err := svc.ActivateSubscription(ctx, pending.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusActive, activated.Status)

	again, err := svc.ActivateSubscription(ctx, pending.Id)
	require.NoError(t, err)
	assert.Equal(t, activated.Id, again.Id)

	subs := activeSubscriptions(t, factory, userId)
	require.Len(t, subs, 1)
	assert.Equal(t, pending.Id, subs[0].Id)
	assert.Equal(t, 1000, svc.GetUserLimits(ctx, userId).MaxMessagesPerMonth)

	canceled := &entity.UserSubscription{
		UserId:             userId,
		PlanId:             pro.Id,
		Status:             entity.SubscriptionStatusCanceled,
		PaymentStatus:      entity.PaymentStatusFailed,
		CurrentPeriodStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, factory.NewUnitOfWork(ctx).SubscriptionRepository().CreateSubscription(ctx, canceled))

	unchanged, err := svc.ActivateSubscription(ctx, canceled.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusCanceled, unchanged.Status)

	subs = activeSubscriptions(t, factory, userId)
	require.Len(t, subs, 1)
	assert.Equal(t, pending.Id, subs[0].Id)
}
