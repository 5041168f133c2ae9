package usecase

import (
	"context"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/fadilmartias/interview-worker/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindInterviewResume(ctx context.Context, email, interviewID string) ([]byte, error) {
	args := m.Called(ctx, email, interviewID)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStore) FindInterviewQuestions(ctx context.Context, email, interviewID string) ([]model.QuestionItem, error) {
	args := m.Called(ctx, email, interviewID)
	items, _ := args.Get(0).([]model.QuestionItem)
	return items, args.Error(1)
}

func (m *MockStore) AppendQuestions(ctx context.Context, email, interviewID string, items []model.QuestionItem) (int64, error) {
	args := m.Called(ctx, email, interviewID, items)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) SetFeedback(ctx context.Context, email, interviewID, feedback string, rating float64) (int64, error) {
	args := m.Called(ctx, email, interviewID, feedback, rating)
	return args.Get(0).(int64), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, document []byte) (string, error) {
	args := m.Called(ctx, document)
	return args.String(0), args.Error(1)
}

type MockQuestionGenerator struct {
	mock.Mock
}

func (m *MockQuestionGenerator) Generate(ctx context.Context, resumeText, role string) ([]string, []string, error) {
	args := m.Called(ctx, resumeText, role)
	questions, _ := args.Get(0).([]string)
	answers, _ := args.Get(1).([]string)
	return questions, answers, args.Error(2)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, given, expected []string) (float64, error) {
	args := m.Called(ctx, given, expected)
	return args.Get(0).(float64), args.Error(1)
}

type MockFeedbackGenerator struct {
	mock.Mock
}

func (m *MockFeedbackGenerator) Generate(ctx context.Context, req service.FeedbackRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// keywordEmbedder maps each text to a fixed vector so identical strings get
// identical embeddings.
type keywordEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (e *keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}
