package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chatbot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_Chat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hi from hf"}}]}`)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-test", srv.URL, "meta-llama/Llama-3.1-8B-Instruct", time.Second)
	reply, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hello"}},
		llm.WithTemperature(0.3),
	)

	require.NoError(t, err)
	assert.Equal(t, "hi from hf", reply)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.3, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestHuggingFaceProvider_ChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"error status", http.StatusUnauthorized, `{"error":"Invalid credentials"}`, "status 401"},
		{"error payload", http.StatusOK, `{"error":{"message":"Model is overloaded"}}`, "Model is overloaded"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "empty choices"},
		{"malformed body", http.StatusOK, `not json`, "failed to decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewHuggingFaceProvider("", srv.URL, "model", time.Second)
			_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHuggingFaceProvider_ChatStreamReplaysReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"whole reply"}}]}`)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("", srv.URL, "model", time.Second)
	stream, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	text, err := llm.Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "whole reply", text)
}
