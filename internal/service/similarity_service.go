package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

const MaxScore = 5.0

var ErrAnswerCountMismatch = errors.New("number of given and expected answers must be the same")

type SimilarityScorerInterface interface {
	Score(ctx context.Context, given, expected []string) (float64, error)
}

// SimilarityService scores position-aligned answer pairs by the mean cosine
// similarity of their embeddings, scaled to 0..5.
type SimilarityService struct {
	embedder Embedder
	logger   *zap.Logger
}

func NewSimilarityService(embedder Embedder, logger *zap.Logger) *SimilarityService {
	return &SimilarityService{embedder: embedder, logger: logger.Named("similarity")}
}

func (s *SimilarityService) Score(ctx context.Context, given, expected []string) (float64, error) {
	if len(given) != len(expected) {
		return 0, fmt.Errorf("%w: given=%d expected=%d", ErrAnswerCountMismatch, len(given), len(expected))
	}
	if len(given) == 0 {
		return 0, fmt.Errorf("no answers to score")
	}

	// Identical pairs have similarity 1 and blank answers 0; neither is embedded.
	var total float64
	var pairs []int
	var texts []string
	for i := range given {
		switch {
		case given[i] == expected[i]:
			total++
		case strings.TrimSpace(given[i]) == "" || strings.TrimSpace(expected[i]) == "":
		default:
			pairs = append(pairs, i)
			texts = append(texts, given[i])
		}
	}
	for _, i := range pairs {
		texts = append(texts, expected[i])
	}

	if len(pairs) > 0 {
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed answers: %w", err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embed answers: expected %d vectors, got %d", len(texts), len(vectors))
		}
		n := len(pairs)
		for k := range pairs {
			sim, err := CosineSimilarity(vectors[k], vectors[n+k])
			if err != nil {
				return 0, fmt.Errorf("pair %d: %w", pairs[k], err)
			}
			total += sim
		}
	}

	score := ScaleScore(total, len(given))
	s.logger.Debug("calculated similarity score",
		zap.Int("answers", len(given)),
		zap.Int("embedded_pairs", len(pairs)),
		zap.Float64("score", score),
	)
	return score, nil
}

// ScaleScore turns the diagonal sum into a 0..5 score rounded to two
// decimals. Negative means are clamped to 0.
func ScaleScore(diagonalSum float64, count int) float64 {
	score := math.Round(diagonalSum/float64(count)*MaxScore*100) / 100
	return math.Max(0, math.Min(MaxScore, score))
}

func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
