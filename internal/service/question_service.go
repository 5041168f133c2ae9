package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fadilmartias/interview-worker/internal/util"
	"go.uber.org/zap"
)

const (
	QuestionCount = 5
	answersMarker = "Answers:"
)

var (
	ErrMalformedResponse = errors.New("malformed question response")

	numberedItemMarker = regexp.MustCompile(`\d+\.\s`)
)

type QuestionGeneratorInterface interface {
	Generate(ctx context.Context, resumeText, role string) (questions, expectedAnswers []string, err error)
}

type QuestionService struct {
	generator TextGenerator
	logger    *zap.Logger
}

func NewQuestionService(generator TextGenerator, logger *zap.Logger) *QuestionService {
	return &QuestionService{generator: generator, logger: logger.Named("questions")}
}

func (s *QuestionService) Generate(ctx context.Context, resumeText, role string) ([]string, []string, error) {
	s.logger.Info("generating questions", zap.String("role", role))

	text, err := s.generator.GenerateText(ctx, BuildQuestionPrompt(resumeText, role))
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}
	s.logger.Debug("question response", zap.String("content", util.TruncateForLog(text, 2000)))

	questions, answers, err := ParseQuestions(text)
	if err != nil {
		return nil, nil, err
	}
	if len(questions) != QuestionCount || len(answers) != QuestionCount {
		s.logger.Warn("unexpected question count",
			zap.Int("questions", len(questions)),
			zap.Int("answers", len(answers)),
			zap.Int("expected", QuestionCount),
		)
	}
	s.logger.Info("generated questions", zap.Int("count", len(questions)))
	return questions, answers, nil
}

func BuildQuestionPrompt(resumeText, role string) string {
	return fmt.Sprintf(`
Based on the following resume text:

%s

Generate %d relevant technical interview questions for the role of %s and their expected answers in a fixed format like this:

Questions:
1.
2.
3.
4.
5.

Answers:
1.
2.
3.
4.
5.

Note: Do not use any markdown or special characters. Make sure the questions can be answered verbally.
If the resume is not clear, generate questions based on the role and answers based on the questions.
`, resumeText, QuestionCount, role)
}

// ParseQuestions splits text once on "Answers:" and extracts the numbered
// items of each half. A response without the marker is malformed. Items stay
// position-aligned: a blank slot on either side drops that index from both.
func ParseQuestions(text string) (questions, answers []string, err error) {
	questionsPart, answersPart, found := strings.Cut(text, answersMarker)
	if !found {
		return nil, nil, fmt.Errorf("%w: %q marker not found", ErrMalformedResponse, answersMarker)
	}
	questions, answers = dropBlankPairs(numberedItems(questionsPart), numberedItems(answersPart))
	return questions, answers, nil
}

// numberedItems returns the trimmed text following each "N. " marker up to
// the next marker or the end of s, blank items included.
func numberedItems(s string) []string {
	locs := numberedItemMarker.FindAllStringIndex(s, -1)
	items := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		items = append(items, strings.TrimSpace(s[loc[1]:end]))
	}
	return items
}

func dropBlankPairs(questions, answers []string) ([]string, []string) {
	keptQ := make([]string, 0, len(questions))
	keptA := make([]string, 0, len(answers))
	for i := 0; i < max(len(questions), len(answers)); i++ {
		var q, a string
		hasQ, hasA := i < len(questions), i < len(answers)
		if hasQ {
			q = questions[i]
		}
		if hasA {
			a = answers[i]
		}
		if (hasQ && q == "") || (hasA && a == "") {
			continue
		}
		if hasQ {
			keptQ = append(keptQ, q)
		}
		if hasA {
			keptA = append(keptA, a)
		}
	}
	return keptQ, keptA
}
