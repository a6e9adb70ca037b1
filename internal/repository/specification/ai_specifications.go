package specification

import "gorm.io/gorm"

type DefaultModel struct{}

func (s DefaultModel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_default = ?", true)
}

type ActiveModels struct{}

func (s ActiveModels) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

type ByConfigCategory struct {
	Category string
}

func (s ByConfigCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

type ByConfigKey struct {
	Key string
}

func (s ByConfigKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("key = ?", s.Key)
}
