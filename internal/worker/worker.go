package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/orders"
	"storefront/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

const (
	consumerGroup = "storefront-rewards"
	maxAttempts   = 3
)

// MessageReader is the part of a Kafka consumer-group reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor *processors.EventProcessor
	backoff   time.Duration
}

func NewKafkaReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokerList(),
		GroupID:  consumerGroup,
		Topic:    cfg.OrderEventsTopic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
}

func New(reader MessageReader, processor *processors.EventProcessor, logger *logger.Logger) *Worker {
	return &Worker{
		logger:    logger,
		reader:    reader,
		processor: processor,
		backoff:   time.Second,
	}
}

// Start consumes order events until ctx is cancelled. Each message is committed once
// it has been handled or has exhausted its attempts.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for order events...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))
		w.handle(ctx, message)

		if err := w.reader.CommitMessages(ctx, message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) {
	var event orders.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		w.logger.Error("Failed to parse event at offset %d: %v", message.Offset, err)
		return
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := w.processor.Process(ctx, event)
		if err == nil {
			return
		}
		if errors.Is(err, processors.ErrPermanent) {
			w.logger.Warn("Dropping event %s for order %s: %v", event.Type, event.OrderID, err)
			return
		}

		w.logger.Warn("Attempt %d/%d for order %s failed: %v", attempt, maxAttempts, event.OrderID, err)
		if attempt < maxAttempts && !w.sleep(ctx) {
			return
		}
	}

	w.logger.Error("Giving up on event %s for order %s", event.Type, event.OrderID)
}

func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.backoff):
		return true
	}
}

func (w *Worker) Stop() error {
	w.logger.Info("Stopping worker...")
	return w.reader.Close()
}
