package contract

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AiModelRepository interface {
	Create(ctx context.Context, aiModel *entity.AIModel) error
	Update(ctx context.Context, aiModel *entity.AIModel) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AIModel, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AIModel, error)

	// ClearDefault unsets the default flag on every model.
	ClearDefault(ctx context.Context) error
	MarkDefault(ctx context.Context, id uuid.UUID) (int64, error)
}
