package handler

import (
	"context"
	"errors"
	"sort"

	"github.com/fadilmartias/interview-worker/internal/config"
	"github.com/fadilmartias/interview-worker/internal/dto"
	"github.com/fadilmartias/interview-worker/internal/model"
	"github.com/fadilmartias/interview-worker/internal/usecase"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Processor runs one pipeline for a decoded envelope.
type Processor interface {
	Process(ctx context.Context, env model.Envelope) error
}

// InterviewHandler routes consumed records to the pipeline registered for
// their topic.
type InterviewHandler struct {
	routes map[string]Processor
	logger *zap.Logger
}

func NewInterviewHandler(logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{routes: make(map[string]Processor), logger: logger.Named("router")}
}

// RegisterTopics binds the two interview topics to their pipelines.
func (h *InterviewHandler) RegisterTopics(resume, scoring Processor) {
	h.Register(config.TopicResumeUpload, resume)
	h.Register(config.TopicFeedbackRequest, scoring)
}

func (h *InterviewHandler) Register(topic string, p Processor) {
	h.routes[topic] = p
}

// Topics returns the registered topics, sorted.
func (h *InterviewHandler) Topics() []string {
	topics := make([]string, 0, len(h.routes))
	for topic := range h.routes {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Dispatch decodes msg and runs the pipeline for its topic. Records on
// unknown topics are ignored. Failures are logged here and returned for
// instrumentation; they never stop the caller.
func (h *InterviewHandler) Dispatch(ctx context.Context, msg kafka.Message) error {
	log := h.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	p, ok := h.routes[msg.Topic]
	if !ok {
		log.Debug("ignoring message on unrouted topic")
		return nil
	}

	env, err := dto.DecodeInterviewEvent(msg.Value)
	if err != nil {
		log.Error("dropping undecodable message", zap.Error(err), zap.Int("size", len(msg.Value)))
		return err
	}
	log = log.With(zap.String("email", env.Email), zap.String("interview_id", env.InterviewID))
	log.Info("received message")

	err = p.Process(ctx, env)
	h.logOutcome(log, err)
	return err
}

func (h *InterviewHandler) logOutcome(log *zap.Logger, err error) {
	if err == nil {
		log.Info("message processed")
		return
	}

	fields := []zap.Field{zap.Error(err)}
	var stageErr *usecase.StageError
	if errors.As(err, &stageErr) {
		fields = append(fields, zap.String("pipeline", stageErr.Pipeline), zap.String("stage", stageErr.Stage))
	}

	switch kind := usecase.Classify(err); kind {
	case usecase.KindLookupMiss, usecase.KindNotModified:
		log.Warn("message not applied", append(fields, zap.String("kind", string(kind)))...)
	case usecase.KindDataIntegrity:
		log.Error("message aborted", append(fields, zap.String("kind", string(kind)), zap.Bool("data_integrity", true))...)
	default:
		log.Error("message aborted", append(fields, zap.String("kind", string(kind)))...)
	}
}
