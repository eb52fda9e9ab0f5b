package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check
var _ Provider = (*DeepSeekProvider)(nil)

// DeepSeekConfig - настройки подключения к DeepSeek API.
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DeepSeekProvider ходит в DeepSeek API (OpenAI-совместимый chat/completions).
type DeepSeekProvider struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

// NewDeepSeekProvider создает провайдер DeepSeek.
func NewDeepSeekProvider(cfg DeepSeekConfig, logger *zap.Logger) (*DeepSeekProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("DEEPSEEK_API_KEY не задан")
	}
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &DeepSeekProvider{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.Model,
		logger: logger.Named("DeepSeekProvider"),
	}, nil
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) GeneratePlan(ctx context.Context, prompt string, params Params) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, fmt.Errorf("%w: пустой системный промт", models.ErrProviderFailure)
	}

	model := params.Model
	if model == "" {
		model = p.model
	}
	temperature := float32(0.2)
	if params.Temperature != nil {
		temperature = float32(*params.Temperature)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: prompt},
	}
	if params.UserContent != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: params.UserContent,
		})
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Ошибка от DeepSeek API",
			zap.Duration("duration", duration),
			zap.String("model", model),
			zap.Error(err))
		observeRequest(model, "error", duration)
		return Result{}, fmt.Errorf("%w: %v", models.ErrProviderFailure, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		p.logger.Error("DeepSeek API вернул пустой ответ",
			zap.Duration("duration", duration),
			zap.String("model", model))
		observeRequest(model, "error_empty_response", duration)
		return Result{}, fmt.Errorf("%w: получен пустой ответ", models.ErrProviderFailure)
	}

	observeRequest(model, "success", duration)
	if resp.Usage.TotalTokens > 0 {
		observeUsage(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	p.logger.Info("Ответ от DeepSeek получен",
		zap.Duration("duration", duration),
		zap.String("model", model),
		zap.Int("totalTokens", resp.Usage.TotalTokens))

	return Result{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Raw: map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		},
	}, nil
}
