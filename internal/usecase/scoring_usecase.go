package usecase

import (
	"context"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/fadilmartias/interview-worker/internal/repository"
	"github.com/fadilmartias/interview-worker/internal/service"
	"go.uber.org/zap"
)

const ScoringPipeline = "scoring"

// ScoringUsecase scores the candidate's answers and persists feedback:
// fetch -> project -> score -> feedback -> persist.
type ScoringUsecase struct {
	store    repository.CandidateRecordStore
	scorer   service.SimilarityScorerInterface
	feedback service.FeedbackGeneratorInterface
	logger   *zap.Logger
}

func NewScoringUsecase(store repository.CandidateRecordStore, scorer service.SimilarityScorerInterface, feedback service.FeedbackGeneratorInterface, logger *zap.Logger) *ScoringUsecase {
	return &ScoringUsecase{store: store, scorer: scorer, feedback: feedback, logger: logger.Named(ScoringPipeline)}
}

func (uc *ScoringUsecase) Process(ctx context.Context, env model.Envelope) error {
	log := uc.logger.With(zap.String("email", env.Email), zap.String("interview_id", env.InterviewID))

	log.Info("fetching answers")
	items, err := uc.store.FindInterviewQuestions(ctx, env.Email, env.InterviewID)
	if err != nil {
		return abort(ScoringPipeline, "fetch", err)
	}
	if len(items) == 0 {
		// The résumé may not have been processed yet; not retried.
		return abort(ScoringPipeline, "fetch", ErrNoQuestions)
	}
	log.Info("answers fetched", zap.Int("count", len(items)))

	questions, given, expected := model.Split(items)

	score, err := uc.scorer.Score(ctx, given, expected)
	if err != nil {
		return abort(ScoringPipeline, "score", err)
	}
	log.Info("answers scored", zap.Float64("score", score))

	feedback, err := uc.feedback.Generate(ctx, service.FeedbackRequest{
		Questions:       questions,
		GivenAnswers:    given,
		ExpectedAnswers: expected,
		CandidateName:   env.Name,
		Role:            env.Role,
		Score:           score,
	})
	if err != nil {
		return abort(ScoringPipeline, "feedback", err)
	}

	modified, err := uc.store.SetFeedback(ctx, env.Email, env.InterviewID, feedback, score)
	if err != nil {
		return abort(ScoringPipeline, "persist", err)
	}
	if modified == 0 {
		return abort(ScoringPipeline, "persist", ErrNotModified)
	}

	log.Info("feedback persisted", zap.Float64("score", score))
	return nil
}
