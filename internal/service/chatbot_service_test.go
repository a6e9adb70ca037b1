package service

import (
	"context"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatbotService_CreateIsGatedByPlan(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	seedPlan(t, factory, "free", true, 1, 50)

	pub := &recordingPublisher{}
	log := logger.NewNopLogger()
	svc := NewChatbotService(factory, NewEntitlementService(factory, pub, nil, log), pub, log)
	caller := Caller{UserId: uuid.New(), Role: entity.UserRoleUser}

	first, err := svc.Create(ctx, caller, &dto.CreateChatbotRequest{Name: "  Support  "})
	require.NoError(t, err)
	assert.Equal(t, "Support", first.Name)
	assert.Equal(t, caller.UserId, first.UserId)
	assert.Len(t, pub.ofType(events.TypeChatbotCreated), 1)

	_, err = svc.Create(ctx, caller, &dto.CreateChatbotRequest{Name: "Sales"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLimitExceeded))

	details, ok := apperror.As(err).Details().(dto.LimitExceededData)
	require.True(t, ok)
	assert.Equal(t, 1, details.Limit)
	assert.Equal(t, 1, details.Used)
	assert.Nil(t, details.ResetAfter)
}

func TestChatbotService_CreateRejectsUnknownModel(t *testing.T) {
	_, factory := newTestDB(t)
	log := logger.NewNopLogger()
	svc := NewChatbotService(factory, NewEntitlementService(factory, nil, nil, log), nil, log)

	missing := uuid.New()
	_, err := svc.Create(context.Background(), Caller{UserId: uuid.New()}, &dto.CreateChatbotRequest{Name: "Bot", ModelId: &missing})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestChatbotService_Access(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	log := logger.NewNopLogger()
	svc := NewChatbotService(factory, NewEntitlementService(factory, nil, nil, log), nil, log)

	owner := uuid.New()
	bot := seedChatbot(t, factory, &entity.Chatbot{UserId: owner, Name: "Private"})
	public := seedChatbot(t, factory, &entity.Chatbot{UserId: owner, Name: "Public", IsPublic: true})

	tests := []struct {
		name     string
		caller   Caller
		id       uuid.UUID
		wantCode apperror.Code
	}{
		{"owner", Caller{UserId: owner, Role: entity.UserRoleUser}, bot.Id, ""},
		{"admin", Caller{UserId: uuid.New(), Role: entity.UserRoleAdmin}, bot.Id, ""},
		{"stranger", Caller{UserId: uuid.New(), Role: entity.UserRoleUser}, bot.Id, apperror.CodeForbidden},
		{"missing", Caller{UserId: owner, Role: entity.UserRoleUser}, uuid.New(), apperror.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Show(ctx, tt.caller, tt.id)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.id, res.Id)
				return
			}
			assert.True(t, apperror.IsCode(err, tt.wantCode))
		})
	}

	_, err := svc.ShowPublic(ctx, bot.Id)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	shown, err := svc.ShowPublic(ctx, public.Id)
	require.NoError(t, err)
	assert.Equal(t, "Public", shown.Name)
}

func TestChatbotService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	_, factory := newTestDB(t)
	log := logger.NewNopLogger()
	svc := NewChatbotService(factory, NewEntitlementService(factory, nil, nil, log), nil, log)

	temp := 0.3
	modelId := uuid.New()
	owner := uuid.New()
	bot := seedChatbot(t, factory, &entity.Chatbot{
		UserId:       owner,
		Name:         "Support",
		CustomPrompt: "Be brief.",
		Temperature:  &temp,
		ModelId:      &modelId,
	})

	public := true
	res, err := svc.Update(ctx, Caller{UserId: owner}, bot.Id, &dto.UpdateChatbotRequest{IsPublic: &public, ClearModel: true})
	require.NoError(t, err)
	assert.True(t, res.IsPublic)
	assert.Nil(t, res.ModelId)
	assert.Equal(t, "Be brief.", res.CustomPrompt)
	require.NotNil(t, res.Temperature)
	assert.InDelta(t, 0.3, *res.Temperature, 0.001)

	name := "Other"
	_, err = svc.Update(ctx, Caller{UserId: uuid.New()}, bot.Id, &dto.UpdateChatbotRequest{Name: &name})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestChatbotService_DeleteRemovesHistory(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	log := logger.NewNopLogger()
	pub := &recordingPublisher{}
	svc := NewChatbotService(factory, NewEntitlementService(factory, nil, nil, log), pub, log)

	owner := uuid.New()
	bot := seedChatbot(t, factory, &entity.Chatbot{UserId: owner, Name: "Support"})
	other := seedChatbot(t, factory, &entity.Chatbot{UserId: owner, Name: "Sales"})

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.ChatMessageRepository().CreateBulk(ctx, []*entity.ChatMessage{
		{ChatbotId: bot.Id, UserId: &owner, Role: entity.ChatMessageRoleUser, Content: "hi"},
		{ChatbotId: bot.Id, UserId: &owner, Role: entity.ChatMessageRoleAssistant, Content: "hello"},
		{ChatbotId: other.Id, UserId: &owner, Role: entity.ChatMessageRoleUser, Content: "price?"},
	}))

	require.NoError(t, svc.Delete(ctx, Caller{UserId: owner}, bot.Id))

	var remaining int64
	require.NoError(t, db.Model(&model.ChatMessage{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	_, err := svc.Show(ctx, Caller{UserId: owner}, bot.Id)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Len(t, pub.ofType(events.TypeChatbotDeleted), 1)
}

func TestChatbotService_HistoryOldestFirst(t *testing.T) {
	ctx := context.Background()
	db, factory := newTestDB(t)
	log := logger.NewNopLogger()
	svc := NewChatbotService(factory, NewEntitlementService(factory, nil, nil, log), nil, log)

	owner := uuid.New()
	bot := seedChatbot(t, factory, &entity.Chatbot{UserId: owner, Name: "Support"})

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, db.Create(&model.ChatMessage{
			ChatbotId: bot.Id,
			Role:      entity.ChatMessageRoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	history, err := svc.History(ctx, Caller{UserId: owner}, bot.Id, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[1].Content)
}
