package tasksplit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"personal-calendar/internal/config"
	"personal-calendar/internal/model"
)

func TestParseSteps(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"numbered", "1. Buy milk\n2. Walk dog\n", []string{"Buy milk", "Walk dog"}},
		{"bullets", "- Step A\n\n- Step B", []string{"Step A", "Step B"}},
		{"chinese", "1、准备材料\n2）写初稿\n3) 修改", []string{"准备材料", "写初稿", "修改"}},
		{"mixed", "* one\n• two\nthree", []string{"one", "two", "three"}},
		{"marker only", "1.\n2. real", []string{"real"}},
		{"ten is not a marker", "10. keep", []string{"10. keep"}},
		{"empty", "\n  \n", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSteps(tc.in))
		})
	}
}

func TestPromptsByLanguage(t *testing.T) {
	p, err := loadPrompts(promptsYAML)
	require.NoError(t, err)

	zh := p.forLanguage("zh-CN")
	assert.Contains(t, zh.render("写论文"), "写论文")
	assert.NotContains(t, zh.render("x"), "{task}")

	en := p.forLanguage("en")
	assert.Contains(t, en.render("write thesis"), "Task: write thesis")
	assert.Equal(t, en, p.forLanguage(""))
}

func completionServer(t *testing.T, content string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSplitOverHTTP(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := completionServer(t, "1. Outline\n2. Draft\n3. Review", &req)

	s, err := New(config.LLM{BaseURL: srv.URL, APIKey: "k", Model: "test-model"}, zap.NewNop())
	require.NoError(t, err)

	steps, err := s.Split(context.Background(), "  write report ", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Outline", "Draft", "Review"}, steps)

	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 0.001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Task: write report")
}

func TestSplitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s, err := New(config.LLM{BaseURL: srv.URL, APIKey: "k", Model: "m"}, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Split(context.Background(), "task", "zh")
	assert.ErrorIs(t, err, model.ErrCompletionFailed)
}

type emptyCompleter struct{}

func (emptyCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

type failingCompleter struct{}

func (failingCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, errors.New("dial tcp: refused")
}

func TestSplitDegrades(t *testing.T) {
	for _, c := range []Completer{emptyCompleter{}, failingCompleter{}} {
		s, err := NewWithClient(c, "m", zap.NewNop())
		require.NoError(t, err)
		steps, err := s.Split(context.Background(), "task", "en")
		assert.Nil(t, steps)
		assert.ErrorIs(t, err, model.ErrCompletionFailed)
	}
}

func TestSubtaskInputs(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.Local)
	in := SubtaskInputs("写论文", []string{"查资料", "写初稿"}, now)

	require.Len(t, in, 2)
	assert.Equal(t, "写论文 - 步骤1: 查资料", in[0].Title)
	assert.Equal(t, "写论文 - 步骤2: 写初稿", in[1].Title)
	for _, e := range in {
		assert.Equal(t, "2024-06-01 10:30:00", e.StartTime)
		assert.Equal(t, model.CategoryWork, e.Category)
		assert.True(t, strings.Contains(e.Notes, "写论文"))
		_, err := e.Normalize()
		assert.NoError(t, err)
	}
	assert.Contains(t, in[1].Notes, "写初稿")
	assert.Empty(t, SubtaskInputs("x", nil, now))
}
