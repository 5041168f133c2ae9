package middleware

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fadilmartias/interview-worker/internal/observability"
	"github.com/fadilmartias/interview-worker/internal/usecase"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one consumed record.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

type MessageMiddleware func(MessageHandler) MessageHandler

var ErrHandlerPanic = errors.New("message handler panicked")

// Chain wraps h so that the first middleware is the outermost.
func Chain(h MessageHandler, mws ...MessageMiddleware) MessageHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recover turns a panic in next into an ErrHandlerPanic so one bad message
// cannot stop the consumer loop.
func Recover(logger *zap.Logger) MessageMiddleware {
	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, msg kafka.Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("recovered from panic",
						zap.String("topic", msg.Topic),
						zap.Int64("offset", msg.Offset),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(ctx, msg)
		}
	}
}

// Instrument records the outcome and duration of every message, plus the
// pipeline stage of aborted runs.
func Instrument(obs *observability.Observability) MessageMiddleware {
	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, msg kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)

			outcome := "ok"
			if kind := usecase.Classify(err); kind != usecase.KindNone {
				outcome = string(kind)
			}
			obs.RecordMessage(ctx, msg.Topic, outcome)
			obs.RecordDuration(ctx, msg.Topic, time.Since(start))

			var stageErr *usecase.StageError
			if errors.As(err, &stageErr) {
				obs.RecordAbort(ctx, stageErr.Pipeline, stageErr.Stage, outcome)
			}
			return err
		}
	}
}
