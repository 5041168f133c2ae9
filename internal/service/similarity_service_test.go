package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type tableEmbedder struct {
	vectors map[string][]float32
	err     error
	inputs  [][]string
}

func (e *tableEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.inputs = append(e.inputs, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vectors[text]
	}
	return out, nil
}

func newTableEmbedder() *tableEmbedder {
	return &tableEmbedder{vectors: map[string][]float32{
		"goroutines are green threads":      {1, 0, 0},
		"lightweight threads managed by Go": {0.8, 0.6, 0},
		"channels pass values":              {0, 1, 0},
		"typed pipes between goroutines":    {0, 0.6, 0.8},
		"I don't know":                      {-1, 0, 0},
		"opposite":                          {1, 0, 0},
	}}
}

func TestSimilarityService_IdenticalAnswersScoreMax(t *testing.T) {
	svc := NewSimilarityService(newTableEmbedder(), zaptest.NewLogger(t))

	for _, answers := range [][]string{
		{"Paris"},
		{"goroutines are green threads", "channels pass values"},
		{"a", "b", "c", "d", "e"},
	} {
		score, err := svc.Score(context.Background(), answers, answers)
		require.NoError(t, err)
		assert.Equal(t, MaxScore, score)
	}
}

func TestSimilarityService_DiagonalMean(t *testing.T) {
	embedder := newTableEmbedder()
	svc := NewSimilarityService(embedder, zaptest.NewLogger(t))

	given := []string{"goroutines are green threads", "channels pass values"}
	expected := []string{"lightweight threads managed by Go", "typed pipes between goroutines"}

	// cos = 0.8 and 0.6, mean 0.7, scaled 3.5.
	score, err := svc.Score(context.Background(), given, expected)
	require.NoError(t, err)
	assert.Equal(t, 3.5, score)

	require.Len(t, embedder.inputs, 1)
	assert.Equal(t, append(append([]string{}, given...), expected...), embedder.inputs[0])
}

func TestSimilarityService_PairedPermutationInvariant(t *testing.T) {
	svc := NewSimilarityService(newTableEmbedder(), zaptest.NewLogger(t))

	given := []string{"goroutines are green threads", "channels pass values", "x"}
	expected := []string{"lightweight threads managed by Go", "typed pipes between goroutines", "x"}
	a, err := svc.Score(context.Background(), given, expected)
	require.NoError(t, err)

	given = []string{"x", "channels pass values", "goroutines are green threads"}
	expected = []string{"x", "typed pipes between goroutines", "lightweight threads managed by Go"}
	b, err := svc.Score(context.Background(), given, expected)
	require.NoError(t, err)

	assert.InDelta(t, a, b, 1e-9)
}

func TestSimilarityService_BlankAnswersScoreZero(t *testing.T) {
	embedder := newTableEmbedder()
	svc := NewSimilarityService(embedder, zaptest.NewLogger(t))

	score, err := svc.Score(context.Background(),
		[]string{"", "channels pass values"},
		[]string{"goroutines are green threads", "channels pass values"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2.5, score)
	assert.Empty(t, embedder.inputs, "nothing left to embed")
}

func TestSimilarityService_NegativeClampedToZero(t *testing.T) {
	svc := NewSimilarityService(newTableEmbedder(), zaptest.NewLogger(t))

	score, err := svc.Score(context.Background(), []string{"I don't know"}, []string{"opposite"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestSimilarityService_LengthMismatch(t *testing.T) {
	embedder := newTableEmbedder()
	svc := NewSimilarityService(embedder, zaptest.NewLogger(t))

	for _, tc := range []struct{ given, expected []string }{
		{[]string{"a"}, []string{"a", "b"}},
		{[]string{"a", "b", "c"}, []string{"a"}},
		{nil, []string{"a"}},
	} {
		_, err := svc.Score(context.Background(), tc.given, tc.expected)
		assert.ErrorIs(t, err, ErrAnswerCountMismatch)
	}
	assert.Empty(t, embedder.inputs)
}

func TestSimilarityService_EmbeddingFailure(t *testing.T) {
	embedErr := errors.New("model unavailable")
	svc := NewSimilarityService(&tableEmbedder{err: embedErr}, zaptest.NewLogger(t))

	_, err := svc.Score(context.Background(), []string{"a"}, []string{"b"})
	assert.ErrorIs(t, err, embedErr)
}

func TestScaleScore(t *testing.T) {
	assert.Equal(t, 5.0, ScaleScore(3, 3))
	assert.Equal(t, 3.33, ScaleScore(2, 3))
	assert.Equal(t, 0.0, ScaleScore(-1.5, 3))
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}
