package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageStatsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewUsageStatsRepository(db *gorm.DB) contract.UsageStatsRepository {
	return &UsageStatsRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *UsageStatsRepositoryImpl) byUser(ctx context.Context, userId uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.UsageStats{}).Where("user_id = ?", userId)
}

func (r *UsageStatsRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UsageStats, error) {
	var m model.UsageStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.UsageToEntity(&m), nil
}

func (r *UsageStatsRepositoryImpl) EnsureExists(ctx context.Context, userId uuid.UUID, windowKey string, now time.Time) error {
	m := &model.UsageStats{
		UserId:      userId,
		WindowKey:   windowKey,
		LastResetAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(m).Error
}

func (r *UsageStatsRepositoryImpl) ResetIfStale(ctx context.Context, userId uuid.UUID, windowKey string, now time.Time) (bool, error) {
	res := r.byUser(ctx, userId).
		Where("window_key <> ?", windowKey).
		Updates(map[string]interface{}{
			"message_count":     0,
			"window_key":        windowKey,
			"last_reset_at":     now,
			"limit_notified_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *UsageStatsRepositoryImpl) Increment(ctx context.Context, userId uuid.UUID) error {
	return r.byUser(ctx, userId).
		Update("message_count", gorm.Expr("message_count + ?", 1)).Error
}

func (r *UsageStatsRepositoryImpl) IncrementIfBelow(ctx context.Context, userId uuid.UUID, limit int) (bool, error) {
	res := r.byUser(ctx, userId).
		Where("message_count < ?", limit).
		Update("message_count", gorm.Expr("message_count + ?", 1))
	return res.RowsAffected == 1, res.Error
}

func (r *UsageStatsRepositoryImpl) Decrement(ctx context.Context, userId uuid.UUID) error {
	return r.byUser(ctx, userId).
		Where("message_count > ?", 0).
		Update("message_count", gorm.Expr("message_count - ?", 1)).Error
}

func (r *UsageStatsRepositoryImpl) MarkLimitNotified(ctx context.Context, userId uuid.UUID, now time.Time) (bool, error) {
	res := r.byUser(ctx, userId).
		Where("limit_notified_at IS NULL").
		Update("limit_notified_at", now)
	return res.RowsAffected == 1, res.Error
}
