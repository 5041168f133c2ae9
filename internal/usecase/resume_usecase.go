package usecase

import (
	"context"

	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/fadilmartias/interview-worker/internal/repository"
	"github.com/fadilmartias/interview-worker/internal/service"
	"github.com/fadilmartias/interview-worker/internal/util"
	"go.uber.org/zap"
)

const ResumePipeline = "resume"

// ResumeUsecase turns an uploaded résumé into persisted interview questions:
// fetch -> extract -> generate -> persist.
type ResumeUsecase struct {
	store     repository.CandidateRecordStore
	extractor util.TextExtractorInterface
	questions service.QuestionGeneratorInterface
	logger    *zap.Logger
}

func NewResumeUsecase(store repository.CandidateRecordStore, extractor util.TextExtractorInterface, questions service.QuestionGeneratorInterface, logger *zap.Logger) *ResumeUsecase {
	return &ResumeUsecase{store: store, extractor: extractor, questions: questions, logger: logger.Named(ResumePipeline)}
}

func (uc *ResumeUsecase) Process(ctx context.Context, env model.Envelope) error {
	log := uc.logger.With(zap.String("email", env.Email), zap.String("interview_id", env.InterviewID))

	log.Info("fetching resume")
	resume, err := uc.store.FindInterviewResume(ctx, env.Email, env.InterviewID)
	if err != nil {
		return abort(ResumePipeline, "fetch", err)
	}
	if len(resume) == 0 {
		return abort(ResumePipeline, "fetch", ErrEmptyResume)
	}

	text, err := uc.extractor.Extract(ctx, resume)
	if err != nil {
		return abort(ResumePipeline, "extract", err)
	}
	log.Info("resume fetched", zap.Int("chars", len(text)))

	questions, answers, err := uc.questions.Generate(ctx, text, env.Role)
	if err != nil {
		return abort(ResumePipeline, "generate", err)
	}

	// An empty batch still marks the résumé as processed.
	items := model.NewQuestionItems(questions, answers)
	if len(items) == 0 {
		log.Warn("no question and answer pairs parsed",
			zap.Int("questions", len(questions)),
			zap.Int("answers", len(answers)),
		)
	}
	log.Info("sending questions", zap.Int("count", len(items)))
	modified, err := uc.store.AppendQuestions(ctx, env.Email, env.InterviewID, items)
	if err != nil {
		return abort(ResumePipeline, "persist", err)
	}
	if modified == 0 {
		return abort(ResumePipeline, "persist", ErrNotModified)
	}

	log.Info("questions persisted", zap.Int("count", len(items)))
	return nil
}
