package implementation

import (
	"context"
	"errors"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AiModelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AiMapper
}

func NewAiModelRepository(db *gorm.DB) contract.AiModelRepository {
	return &AiModelRepositoryImpl{
		db:     db,
		mapper: mapper.NewAiMapper(),
	}
}

func (r *AiModelRepositoryImpl) Create(ctx context.Context, aiModel *entity.AIModel) error {
	m := r.mapper.ModelToModel(aiModel)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*aiModel = *r.mapper.ModelToEntity(m)
	return nil
}

func (r *AiModelRepositoryImpl) Update(ctx context.Context, aiModel *entity.AIModel) error {
	m := r.mapper.ModelToModel(aiModel)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*aiModel = *r.mapper.ModelToEntity(m)
	return nil
}

func (r *AiModelRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AIModel, error) {
	var m model.AIModel
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ModelToEntity(&m), nil
}

func (r *AiModelRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AIModel, error) {
	var models []*model.AIModel
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AIModel, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ModelToEntity(m)
	}
	return entities, nil
}

func (r *AiModelRepositoryImpl) ClearDefault(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&model.AIModel{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}

func (r *AiModelRepositoryImpl) MarkDefault(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.AIModel{}).
		Where("id = ?", id).
		Update("is_default", true)
	return res.RowsAffected, res.Error
}
