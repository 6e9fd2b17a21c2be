package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

func TestChatSendsMessagesAndOptions(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "1월 운영비는 5,000원입니다."},
			Done:    true,
		})
	}))
	defer srv.Close()

	svc := NewLLMService(Config{BaseURL: srv.URL, Model: "qwen2.5:7b"})

	answer, err := svc.Chat(context.Background(), "규칙을 지키세요", "운영비는?", driven.ChatOptions{
		MaxTokens:   1000,
		Temperature: 0.1,
		TopP:        0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "1월 운영비는 5,000원입니다.", answer)

	assert.Equal(t, "qwen2.5:7b", gotReq.Model)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "규칙을 지키세요", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)

	require.NotNil(t, gotReq.Options)
	assert.Equal(t, 1000, gotReq.Options.NumPredict)
	assert.InDelta(t, 0.1, gotReq.Options.Temperature, 0.001)
	assert.InDelta(t, 0.9, gotReq.Options.TopP, 0.001)
}

func TestChatOmitsOptionsWhenUnset(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}})
	}))
	defer srv.Close()

	svc := NewLLMService(Config{BaseURL: srv.URL})

	_, err := svc.Chat(context.Background(), "s", "u", driven.ChatOptions{})
	require.NoError(t, err)
	assert.Nil(t, gotReq.Options)
}

func TestGenerateSendsPromptAndStopWords(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "DETAIL", Done: true})
	}))
	defer srv.Close()

	svc := NewLLMService(Config{BaseURL: srv.URL})

	out, err := svc.Generate(context.Background(), "분류하세요", driven.GenerateOptions{
		MaxTokens: 10,
		StopWords: []string{"\n"},
	})
	require.NoError(t, err)
	assert.Equal(t, "DETAIL", out)

	assert.Equal(t, "분류하세요", gotReq.Prompt)
	require.NotNil(t, gotReq.Options)
	assert.Equal(t, 10, gotReq.Options.NumPredict)
	assert.Equal(t, []string{"\n"}, gotReq.Options.Stop)
}

func TestServerErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model 'qwen2.5:7b' not found"}`))
	}))
	defer srv.Close()

	svc := NewLLMService(Config{BaseURL: srv.URL})

	_, err := svc.Chat(context.Background(), "s", "u", driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models": []}`))
	}))
	defer srv.Close()

	svc := NewLLMService(Config{BaseURL: srv.URL})
	assert.NoError(t, svc.Ping(context.Background()))

	srv.Close()
	assert.Error(t, svc.Ping(context.Background()))
}
