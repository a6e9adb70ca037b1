package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeChatService struct {
	err        error
	chunks     []llm.StreamChunk
	lastCaller service.Caller
	lastMeta   service.VisitorMeta
}

func (f *fakeChatService) GenerateChatbotResponse(ctx context.Context, caller service.Caller, chatbotId uuid.UUID, req *dto.ChatRequest) (*service.ChatStream, error) {
	f.lastCaller = caller
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan llm.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return &service.ChatStream{ChatbotId: chatbotId, Model: "llama3", Chunks: ch}, nil
}

func (f *fakeChatService) GenerateChatResponse(ctx context.Context, chatbotId uuid.UUID, req *dto.PublicChatRequest, meta service.VisitorMeta) (*dto.ChatResponse, error) {
	f.lastMeta = meta
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ChatResponse{
		ChatbotId: chatbotId,
		Message:   dto.ChatMessageDTO{Role: "assistant", Content: "Hello!"},
		Model:     "llama3",
	}, nil
}

func newChatApp(svc service.IChatService, perMinute int) *fiber.App {
	log := logger.NewNopLogger()
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log, true))

	api := app.Group("/api")
	public := app.Group("/api/public", cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET, POST, OPTIONS"}))

	limiter := serverutils.NewRateLimiter(serverutils.RateLimitConfig{PerMinute: perMinute, Burst: perMinute})
	NewChatController(svc, limiter, log).RegisterRoutes(api, public, serverutils.NewJwtMiddleware(testSecret))
	return app
}

func bearer(t *testing.T, role entity.UserRole) (uuid.UUID, string) {
	t.Helper()
	userId := uuid.New()
	token, err := serverutils.IssueToken(testSecret, userId, role, time.Hour)
	require.NoError(t, err)
	return userId, "Bearer " + token
}

func chatBody(content string) io.Reader {
	return strings.NewReader(`{"messages":[{"role":"user","content":"` + content + `"}]}`)
}

func decodeEnvelope(t *testing.T, resp *http.Response) serverutils.Response {
	t.Helper()
	var out serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestChatController_StreamsSSE(t *testing.T) {
	svc := &fakeChatService{chunks: []llm.StreamChunk{{Content: "Hel"}, {Content: "lo"}}}
	app := newChatApp(svc, 10)
	userId, auth := bearer(t, entity.UserRoleUser)

	req := httptest.NewRequest(http.MethodPost, "/api/chatbots/"+uuid.NewString()+"/chat", chatBody("hi"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: Hel\n\ndata: lo\n\ndata: [DONE]\n\n", string(body))
	assert.Equal(t, userId, svc.lastCaller.UserId)
}

func TestChatController_StatusCodes(t *testing.T) {
	limitErr := apperror.New(apperror.CodeLimitExceeded, "Monthly message limit reached").
		WithDetails(dto.LimitExceededData{Limit: 50, Used: 50, ShowModalPricing: true})

	tests := []struct {
		name       string
		err        error
		auth       bool
		path       string
		body       string
		wantStatus int
	}{
		{"missing token", nil, false, "/api/chatbots/" + uuid.NewString() + "/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusUnauthorized},
		{"limit exceeded", limitErr, true, "/api/chatbots/" + uuid.NewString() + "/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusPaymentRequired},
		{"private chatbot", apperror.Forbidden("Not your chatbot"), true, "/api/chatbots/" + uuid.NewString() + "/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusForbidden},
		{"bad id", nil, true, "/api/chatbots/not-a-uuid/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusBadRequest},
		{"empty conversation", nil, true, "/api/chatbots/" + uuid.NewString() + "/chat", `{"messages":[]}`, http.StatusBadRequest},
		{"public limit exceeded", limitErr, false, "/api/public/chatbots/" + uuid.NewString() + "/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusPaymentRequired},
		{"public missing", apperror.NotFound("Chatbot not found"), false, "/api/public/chatbots/" + uuid.NewString() + "/chat", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newChatApp(&fakeChatService{err: tt.err}, 10)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth {
				_, auth := bearer(t, entity.UserRoleUser)
				req.Header.Set("Authorization", auth)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusPaymentRequired {
				out := decodeEnvelope(t, resp)
				data, ok := out.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, float64(50), data["limit"])
				assert.Equal(t, true, data["show_modal_pricing"])
			}
		})
	}
}

func TestChatController_PublicChat(t *testing.T) {
	svc := &fakeChatService{}
	app := newChatApp(svc, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/public/chatbots/"+uuid.NewString()+"/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}],"visitor_id":"v-42"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Referer", "https://shop.example/checkout")
	req.Header.Set("User-Agent", "widget-test")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	out := decodeEnvelope(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, service.VisitorMeta{VisitorId: "v-42", Referrer: "https://shop.example/checkout", UserAgent: "widget-test"}, svc.lastMeta)
}

func TestChatController_PublicPreflight(t *testing.T) {
	app := newChatApp(&fakeChatService{}, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/public/chatbots/"+uuid.NewString()+"/chat", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestChatController_PublicRateLimit(t *testing.T) {
	app := newChatApp(&fakeChatService{}, 1)
	path := "/api/public/chatbots/" + uuid.NewString() + "/chat"

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, path, chatBody("hi"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, statuses)
}
