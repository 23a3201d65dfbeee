package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"granito/internal/config"
	"granito/internal/events"
	"granito/internal/logger"
	"granito/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Fetch retry delays after a broker error.
const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

type Worker struct {
	logger     *logger.Logger
	reader     MessageReader
	processor  *processors.EventProcessor
	timeout    time.Duration
	retryDelay time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, processor *processors.EventProcessor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, logger, processor, cfg.SyncTimeout)
}

func NewWithReader(reader MessageReader, logger *logger.Logger, processor *processors.EventProcessor, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Worker{
		logger:     logger,
		reader:     reader,
		processor:  processor,
		timeout:    timeout,
		retryDelay: minRetryDelay,
	}
}

// Start consumes events until ctx is cancelled. Messages are committed even
// when processing fails; the failure is in the sync audit trail.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for events...")

	delay := w.retryDelay
	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("Failed to read message, retrying in %s: %v", delay, err)
			if !sleep(ctx, delay) {
				return
			}
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		delay = w.retryDelay

		w.handle(ctx, message)

		if err := w.reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to commit message at offset %d: %v", message.Offset, err)
		}
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) {
	w.logger.Debug("Received message: %s", string(message.Value))

	var event events.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		w.logger.Error("Failed to parse event at offset %d: %v", message.Offset, err)
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.processor.Process(processCtx, event); err != nil {
		w.logger.Error("Failed to process event %s: %v", event.ID, err)
		return
	}

	w.logger.Debug("Event %s processed successfully", event.ID)
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Warn("Failed to close reader: %v", err)
	}
}
