package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/fadilmartias/interview-worker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestScoringUsecase_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	feedback := new(MockFeedbackGenerator)
	embedder := &keywordEmbedder{}
	scorer := service.NewSimilarityService(embedder, zaptest.NewLogger(t))
	uc := NewScoringUsecase(store, scorer, feedback, zaptest.NewLogger(t))

	store.On("FindInterviewQuestions", ctx, testEnvelope.Email, testEnvelope.InterviewID).
		Return([]model.QuestionItem{{Question: "Q", UserAnswer: "Paris", ExpectedAnswer: "Paris"}}, nil)
	feedback.On("Generate", ctx, service.FeedbackRequest{
		Questions:       []string{"Q"},
		GivenAnswers:    []string{"Paris"},
		ExpectedAnswers: []string{"Paris"},
		CandidateName:   testEnvelope.Name,
		Role:            testEnvelope.Role,
		Score:           5.0,
	}).Return("* **Great** answer.", nil)
	store.On("SetFeedback", ctx, testEnvelope.Email, testEnvelope.InterviewID, "* **Great** answer.", 5.0).
		Return(int64(1), nil)

	require.NoError(t, uc.Process(ctx, testEnvelope))
	store.AssertNumberOfCalls(t, "SetFeedback", 1)
	store.AssertExpectations(t)
	feedback.AssertExpectations(t)
}

func TestScoringUsecase_ProjectsAlignedSequences(t *testing.T) {
	store := new(MockStore)
	scorer := new(MockScorer)
	feedback := new(MockFeedbackGenerator)
	uc := NewScoringUsecase(store, scorer, feedback, zaptest.NewLogger(t))

	store.On("FindInterviewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]model.QuestionItem{
		{Question: "Q1", UserAnswer: "U1", ExpectedAnswer: "E1"},
		{Question: "Q2", UserAnswer: "U2", ExpectedAnswer: "E2"},
	}, nil)
	scorer.On("Score", mock.Anything, []string{"U1", "U2"}, []string{"E1", "E2"}).Return(3.21, nil)
	feedback.On("Generate", mock.Anything, mock.MatchedBy(func(req service.FeedbackRequest) bool {
		return assert.ObjectsAreEqual([]string{"Q1", "Q2"}, req.Questions) && req.Score == 3.21
	})).Return("feedback", nil)
	store.On("SetFeedback", mock.Anything, mock.Anything, mock.Anything, "feedback", 3.21).Return(int64(1), nil)

	require.NoError(t, uc.Process(context.Background(), testEnvelope))
	scorer.AssertExpectations(t)
	feedback.AssertExpectations(t)
}

func TestScoringUsecase_Aborts(t *testing.T) {
	backendErr := errors.New("gemini unavailable")
	items := []model.QuestionItem{{Question: "Q", UserAnswer: "U", ExpectedAnswer: "E"}}

	tests := []struct {
		name      string
		items     []model.QuestionItem
		fetchErr  error
		scoreErr  error
		feedErr   error
		wantErr   error
		wantKind  Kind
		wantStage string
	}{
		{name: "not found", fetchErr: ErrInterviewNotFound, wantErr: ErrInterviewNotFound, wantKind: KindLookupMiss, wantStage: "fetch"},
		{name: "resume not processed yet", items: nil, wantErr: ErrNoQuestions, wantKind: KindLookupMiss, wantStage: "fetch"},
		{name: "count mismatch", items: items, scoreErr: service.ErrAnswerCountMismatch, wantErr: ErrAnswerCountMismatch, wantKind: KindDataIntegrity, wantStage: "score"},
		{name: "embedding failure", items: items, scoreErr: backendErr, wantErr: backendErr, wantKind: KindBackend, wantStage: "score"},
		{name: "feedback failure", items: items, feedErr: backendErr, wantErr: backendErr, wantKind: KindBackend, wantStage: "feedback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			scorer := new(MockScorer)
			feedback := new(MockFeedbackGenerator)
			uc := NewScoringUsecase(store, scorer, feedback, zaptest.NewLogger(t))

			store.On("FindInterviewQuestions", mock.Anything, mock.Anything, mock.Anything).Return(tt.items, tt.fetchErr)
			scorer.On("Score", mock.Anything, mock.Anything, mock.Anything).Return(2.5, tt.scoreErr).Maybe()
			feedback.On("Generate", mock.Anything, mock.Anything).Return("", tt.feedErr).Maybe()

			err := uc.Process(context.Background(), testEnvelope)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, Classify(err))

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, ScoringPipeline, stageErr.Pipeline)
			assert.Equal(t, tt.wantStage, stageErr.Stage)

			// A score is never persisted without feedback.
			store.AssertNotCalled(t, "SetFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestScoringUsecase_NotModified(t *testing.T) {
	store := new(MockStore)
	scorer := new(MockScorer)
	feedback := new(MockFeedbackGenerator)
	uc := NewScoringUsecase(store, scorer, feedback, zaptest.NewLogger(t))

	store.On("FindInterviewQuestions", mock.Anything, mock.Anything, mock.Anything).
		Return([]model.QuestionItem{{Question: "Q", UserAnswer: "U", ExpectedAnswer: "E"}}, nil)
	scorer.On("Score", mock.Anything, mock.Anything, mock.Anything).Return(1.0, nil)
	feedback.On("Generate", mock.Anything, mock.Anything).Return("fb", nil)
	store.On("SetFeedback", mock.Anything, mock.Anything, mock.Anything, "fb", 1.0).Return(int64(0), nil)

	err := uc.Process(context.Background(), testEnvelope)
	assert.ErrorIs(t, err, ErrNotModified)
	assert.Equal(t, KindNotModified, Classify(err))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindDecode, Classify(ErrInvalidEnvelope))
	assert.Equal(t, KindBackend, Classify(errors.New("boom")))
	assert.Equal(t, KindBackend, Classify(abort(ResumePipeline, "generate", service.ErrMalformedResponse)))
}
