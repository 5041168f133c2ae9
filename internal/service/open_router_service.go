package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/interview-worker/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// OpenRouterService is an alternate TextGenerator backed by the OpenRouter
// chat completions API.
type OpenRouterService struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, logger *zap.Logger) (*OpenRouterService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &OpenRouterService{
		client: client,
		model:  cfg.Model,
		logger: logger.Named("openrouter"),
	}, nil
}

func (s *OpenRouterService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are an experienced technical interviewer."},
				{"role": "user", "content": prompt},
			},
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode(), gjson.GetBytes(resp.Body(), "error.message").String())
	}

	text := strings.TrimSpace(gjson.GetBytes(resp.Body(), "choices.0.message.content").String())
	if text == "" {
		return "", fmt.Errorf("no response from LLM")
	}
	s.logger.Debug("generated content", zap.Int("length", len(text)))
	return text, nil
}
