package tasksplit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"personal-calendar/internal/config"
	"personal-calendar/internal/model"
)

const (
	temperature = 0.3
	maxTokens   = 500
)

// Completer is the part of *openai.Client the splitter uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Splitter struct {
	client  Completer
	model   string
	prompts prompts
	log     *zap.Logger
}

// New builds a splitter talking to an OpenAI-compatible endpoint.
func New(cfg config.LLM, log *zap.Logger) (*Splitter, error) {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(oc), cfg.Model, log)
}

func NewWithClient(client Completer, model string, log *zap.Logger) (*Splitter, error) {
	p, err := loadPrompts(promptsYAML)
	if err != nil {
		return nil, err
	}
	return &Splitter{client: client, model: model, prompts: p, log: log}, nil
}

// Split asks the model to break task into steps. Every failure of the
// completion call is reported as model.ErrCompletionFailed.
func (s *Splitter) Split(ctx context.Context, task, lang string) ([]string, error) {
	task = strings.TrimSpace(task)
	p := s.prompts.forLanguage(lang)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.render(task)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.log.Warn("completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		s.log.Warn("completion returned no choices")
		return nil, fmt.Errorf("%w: empty response", model.ErrCompletionFailed)
	}

	steps := ParseSteps(resp.Choices[0].Message.Content)
	s.log.Debug("task split", zap.Int("steps", len(steps)))
	return steps, nil
}

// SubtaskInputs turns the steps of mainTask into events starting at now.
func SubtaskInputs(mainTask string, steps []string, now time.Time) []model.EventInput {
	start := model.FormatTimestamp(now)
	out := make([]model.EventInput, 0, len(steps))
	for i, step := range steps {
		out = append(out, model.EventInput{
			Title:     fmt.Sprintf("%s - 步骤%d: %s", mainTask, i+1, step),
			StartTime: start,
			Category:  model.CategoryWork,
			Notes:     fmt.Sprintf("主任务: %s\n步骤: %s", mainTask, step),
		})
	}
	return out
}
