package usecase

import (
	"errors"
	"fmt"

	"github.com/fadilmartias/interview-worker/internal/dto"
	"github.com/fadilmartias/interview-worker/internal/repository"
	"github.com/fadilmartias/interview-worker/internal/service"
)

var (
	ErrInvalidEnvelope     = dto.ErrInvalidEvent
	ErrInterviewNotFound   = repository.ErrInterviewNotFound
	ErrEmptyResume         = errors.New("interview has no resume data")
	ErrNoQuestions         = errors.New("interview has no questions")
	ErrNotModified         = errors.New("no documents modified")
	ErrAnswerCountMismatch = service.ErrAnswerCountMismatch
)

// Kind classifies why a message was not fully processed.
type Kind string

const (
	KindNone          Kind = ""
	KindDecode        Kind = "decode"
	KindLookupMiss    Kind = "lookup_miss"
	KindBackend       Kind = "backend"
	KindNotModified   Kind = "not_modified"
	KindDataIntegrity Kind = "data_integrity"
)

// StageError names the pipeline state at which processing was aborted.
type StageError struct {
	Pipeline string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s pipeline aborted at %s: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func abort(pipeline, stage string, err error) error {
	return &StageError{Pipeline: pipeline, Stage: stage, Err: err}
}

func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidEnvelope):
		return KindDecode
	case errors.Is(err, ErrInterviewNotFound),
		errors.Is(err, repository.ErrInvalidInterviewID),
		errors.Is(err, ErrEmptyResume),
		errors.Is(err, ErrNoQuestions):
		return KindLookupMiss
	case errors.Is(err, ErrNotModified):
		return KindNotModified
	case errors.Is(err, ErrAnswerCountMismatch):
		return KindDataIntegrity
	default:
		return KindBackend
	}
}
