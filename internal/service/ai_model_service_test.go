package service

import (
	"context"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countDefaults(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.AIModel{}).Where("is_default = ?", true).Count(&n).Error)
	return n
}

func TestAiModelService_SetDefaultKeepsSingleDefault(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	svc := NewAiModelService(factory, memory.NewModelCache(time.Minute), logger.NewNopLogger())

	llama, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "Llama 3", Provider: "ollama", ModelId: "llama3"})
	require.NoError(t, err)
	assert.True(t, llama.IsDefault, "first model becomes the default")

	gpt, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "GPT-4o mini", Provider: "openai", ModelId: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.False(t, gpt.IsDefault)

	mistral, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "Mistral", Provider: "huggingface", ModelId: "mistralai/Mistral-7B-Instruct"})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{gpt.Id, mistral.Id, llama.Id, gpt.Id, gpt.Id} {
		_, err := svc.SetDefaultModel(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), countDefaults(t, db))
	}

	resolved, err := svc.ResolveModel(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, gpt.Id, resolved.Id)

	_, err = svc.SetDefaultModel(ctx, uuid.New())
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Equal(t, int64(1), countDefaults(t, db))
}

func TestAiModelService_SetDefaultRejectsInactive(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	svc := NewAiModelService(factory, memory.NewModelCache(time.Minute), logger.NewNopLogger())

	_, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "Llama 3", Provider: "ollama", ModelId: "llama3"})
	require.NoError(t, err)

	inactive := false
	retired, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "Old", Provider: "ollama", ModelId: "llama2", IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.SetDefaultModel(ctx, retired.Id)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, int64(1), countDefaults(t, db))
}

func TestAiModelService_ResolveModel(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	svc := NewAiModelService(factory, memory.NewModelCache(time.Minute), logger.NewNopLogger())

	_, err := svc.ResolveModel(ctx, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeConfigurationMissing))

	def, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "Llama 3", Provider: "ollama", ModelId: "llama3"})
	require.NoError(t, err)
	other, err := svc.CreateModel(ctx, dto.CreateAiModelRequest{Name: "GPT", Provider: "openai", ModelId: "gpt-4o-mini"})
	require.NoError(t, err)

	resolved, err := svc.ResolveModel(ctx, &other.Id)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", resolved.ModelId)

	missing := uuid.New()
	resolved, err = svc.ResolveModel(ctx, &missing)
	require.NoError(t, err)
	assert.Equal(t, def.Id, resolved.Id, "unknown model falls back to the default")

	inactive := false
	_, err = svc.UpdateModel(ctx, other.Id, dto.UpdateAiModelRequest{IsActive: &inactive})
	require.NoError(t, err)
	resolved, err = svc.ResolveModel(ctx, &other.Id)
	require.NoError(t, err)
	assert.Equal(t, def.Id, resolved.Id, "inactive model falls back to the default")

	_, err = svc.UpdateModel(ctx, def.Id, dto.UpdateAiModelRequest{IsActive: &inactive})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
