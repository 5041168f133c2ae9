package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fadilmartias/interview-worker/internal/config"
	"github.com/fadilmartias/interview-worker/internal/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const commitTimeout = 5 * time.Second

// MessageReader is the subset of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewReader builds a consumer-group reader over the interview topics,
// starting from the earliest offset when the group has none committed.
func NewReader(cfg *config.KafkaConfig) (*kafkago.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKER not set")
	}
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     cfg.PollTimeout,
	}), nil
}

// Consumer is a single-threaded poll loop: fetch one record, hand it to the
// handler, commit it, repeat.
type Consumer struct {
	reader      MessageReader
	handle      middleware.MessageHandler
	pollTimeout time.Duration
	logger      *zap.Logger
}

func NewConsumer(reader MessageReader, handle middleware.MessageHandler, pollTimeout time.Duration, logger *zap.Logger) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = 100 * time.Millisecond
	}
	return &Consumer{reader: reader, handle: handle, pollTimeout: pollTimeout, logger: logger.Named("consumer")}
}

// Run polls until ctx is cancelled or the reader is closed. Per-message and
// per-poll failures are logged and the loop continues.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", zap.Duration("poll_timeout", c.pollTimeout))
	defer c.logger.Info("consumer stopped")

	for ctx.Err() == nil {
		err := c.poll(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			return err
		default:
			c.logger.Error("poll failed", zap.Error(err))
			select {
			case <-time.After(c.pollTimeout):
			case <-ctx.Done():
			}
		}
	}
	return nil
}

func (c *Consumer) poll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll panicked: %v", r)
		}
	}()

	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	msg, err := c.reader.FetchMessage(pollCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil
		}
		return fmt.Errorf("fetch message: %w", err)
	}

	// Pipeline errors are logged and counted by the handler chain; the record
	// is committed either way.
	_ = c.handle(ctx, msg)

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		return fmt.Errorf("commit %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
