package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/interview-worker/internal/config"
	"github.com/fadilmartias/interview-worker/internal/util"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator is the generative-text capability used by the question and
// feedback generators.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns a batch of strings into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// modelsAPI is the subset of *genai.Models the service calls.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

const maxEmbedRunes = 10000

type GeminiService struct {
	models         modelsAPI
	logger         *zap.Logger
	Model          string
	EmbeddingModel string
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration

	breakerMu         sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
	circuitCooldown   time.Duration
	lastFailure       time.Time
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiService(client.Models, cfg.Model, cfg.EmbeddingModel, logger), nil
}

func newGeminiService(models modelsAPI, model, embeddingModel string, logger *zap.Logger) *GeminiService {
	return &GeminiService{
		models:            models,
		logger:            logger.Named("gemini"),
		Model:             model,
		EmbeddingModel:    embeddingModel,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		circuitBreakerMax: 5,
		circuitCooldown:   time.Minute,
	}
}

func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if s.Model == "" {
		return "", fmt.Errorf("model name cannot be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	var result *genai.GenerateContentResponse
	err := s.withRetry(ctx, "GenerateText", func(ctx context.Context) error {
		resp, err := s.models.GenerateContent(ctx, s.Model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.4)),
		})
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.validateGenerateResponse(result); err != nil {
		return "", fmt.Errorf("invalid response: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("invalid response: empty text")
	}
	s.logger.Debug("generated content",
		zap.Int("length", len(text)),
		zap.String("preview", util.TruncateForLog(text, 200)),
	)
	return text, nil
}

func (s *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, fmt.Errorf("text for embedding at index %d cannot be empty", i)
		}
		if n := utf8.RuneCountInString(trimmed); n > maxEmbedRunes {
			s.logger.Warn("embedding input exceeds recommended limit, truncating",
				zap.Int("index", i), zap.Int("length", n))
			trimmed = string([]rune(trimmed)[:maxEmbedRunes])
		}
		contents = append(contents, genai.NewContentFromText(trimmed, genai.RoleUser))
	}

	var result *genai.EmbedContentResponse
	err := s.withRetry(ctx, "Embed", func(ctx context.Context) error {
		resp, err := s.models.EmbedContent(ctx, s.EmbeddingModel, contents, nil)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.validateEmbeddingResponse(result, len(texts))
}

// withRetry runs call until it succeeds, fails with a non-retryable error
// or exhausts MaxRetries. The whole sequence shares one RequestTimeout.
func (s *GeminiService) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	if consecutive, open := s.GetCircuitBreakerStatus(); open {
		return fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", consecutive)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.logger.Info("retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", s.MaxRetries),
				zap.Duration("delay", delay),
			)

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				s.recordFailure()
				return fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		err := call(timeoutCtx)
		if err == nil {
			s.recordSuccess()
			return nil
		}
		lastErr = err

		if !s.isRetryableError(err) {
			s.recordFailure()
			return fmt.Errorf("%s failed: %w", op, err)
		}
		s.logger.Warn("retryable error", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.recordFailure()
	return fmt.Errorf("max retries (%d) exceeded for %s: %w", s.MaxRetries, op, lastErr)
}

func (s *GeminiService) recordSuccess() {
	s.breakerMu.Lock()
	defer s.breakerMu.Unlock()
	s.consecutiveErrors = 0
}

func (s *GeminiService) recordFailure() {
	s.breakerMu.Lock()
	defer s.breakerMu.Unlock()
	s.consecutiveErrors++
	s.lastFailure = time.Now()
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	// Spread retries by up to 12.5% either side of the nominal delay.
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(rand.Float64()*float64(jitter))
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}

	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}

	return nil
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}

	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Embeddings))
	}

	vectors := make([][]float32, 0, want)
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding vector %d is empty", i)
		}
		for j, val := range emb.Values {
			if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
				return nil, fmt.Errorf("invalid embedding value at %d/%d: %v", i, j, val)
			}
		}
		vectors = append(vectors, emb.Values)
	}

	return vectors, nil
}

// GetCircuitBreakerStatus reports the failure streak and whether calls are
// currently short-circuited. Safe to call from other goroutines.
func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.breakerMu.Lock()
	defer s.breakerMu.Unlock()
	isOpen = s.consecutiveErrors >= s.circuitBreakerMax && time.Since(s.lastFailure) < s.circuitCooldown
	return s.consecutiveErrors, isOpen
}
