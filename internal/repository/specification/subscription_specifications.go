package specification

import (
	"time"

	"gorm.io/gorm"
)

type BySubscriptionStatus struct {
	Status string
}

func (s BySubscriptionStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// CurrentSubscription matches active subscriptions whose period has not ended.
type CurrentSubscription struct {
	Now time.Time
}

func (s CurrentSubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND current_period_end > ?", "active", s.Now)
}

type FreePlan struct{}

func (s FreePlan) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_free = ?", true)
}

type ActivePlans struct{}

func (s ActivePlans) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
