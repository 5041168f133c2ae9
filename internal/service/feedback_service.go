package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/interview-worker/internal/util"
	"go.uber.org/zap"
)

type FeedbackGeneratorInterface interface {
	Generate(ctx context.Context, req FeedbackRequest) (string, error)
}

type FeedbackRequest struct {
	Questions       []string
	GivenAnswers    []string
	ExpectedAnswers []string
	CandidateName   string
	Role            string
	Score           float64
}

type FeedbackService struct {
	generator TextGenerator
	logger    *zap.Logger
}

func NewFeedbackService(generator TextGenerator, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{generator: generator, logger: logger.Named("feedback")}
}

func (s *FeedbackService) Generate(ctx context.Context, req FeedbackRequest) (string, error) {
	s.logger.Info("generating feedback", zap.String("role", req.Role), zap.Float64("score", req.Score))

	feedback, err := s.generator.GenerateText(ctx, BuildFeedbackPrompt(req))
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}
	s.logger.Debug("feedback response", zap.String("content", util.TruncateForLog(feedback, 2000)))
	return feedback, nil
}

func BuildFeedbackPrompt(req FeedbackRequest) string {
	firstName := req.CandidateName
	if fields := strings.Fields(firstName); len(fields) > 0 {
		firstName = fields[0]
	}

	return fmt.Sprintf(`
Based on the following technical interview questions and answers for the role of %s:

Questions:
%s

Given Answers:
%s

Expected Answers:
%s

Calculated Cosine Similarity (Out of 5):
%.2f

Provide relevant first person feedback to %s from the perspective of an interviewer in few points. Be blunt, but constructive and helpful.

Note: Do not use any special characters. You are only allowed to use these markdown tags: (bullet points, bold, italic, underline, code block).
The interview was conducted using speech to text so there may be grammatical errors in the answers, ignore them.
`,
		req.Role,
		strings.Join(req.Questions, "\n"),
		strings.Join(req.GivenAnswers, "\n"),
		strings.Join(req.ExpectedAnswers, "\n"),
		req.Score,
		firstName,
	)
}
