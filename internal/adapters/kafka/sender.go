// Package kafka ships change batches to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bft-labs/batcher/internal/domain"
	"github.com/bft-labs/batcher/internal/ports"
	"github.com/bft-labs/batcher/pkg/log"
)

// messageWriter is the subset of *kafka.Writer used by BatchSender.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// BatchSender implements ports.BatchSender by writing one message per batch,
// keyed by batch ID.
type BatchSender struct {
	writer messageWriter
	topic  string
	logger ports.Logger
}

// NewBatchSender creates a sender writing to topic on brokers.
func NewBatchSender(brokers []string, topic string, writeTimeout time.Duration, logger ports.Logger) *BatchSender {
	return newBatchSender(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
	}, topic, logger)
}

func newBatchSender(w messageWriter, topic string, logger ports.Logger) *BatchSender {
	return &BatchSender{
		writer: w,
		topic:  topic,
		logger: log.OrNoop(logger),
	}
}

// Send writes the batch as a single JSON message.
func (s *BatchSender) Send(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return domain.ErrEmptyBatch
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(batch.ID),
		Value: data,
		Time:  batch.CreatedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", s.topic, err)
	}

	s.logger.Debug("batch sent",
		log.String("batch_id", batch.ID),
		log.String("topic", s.topic),
		log.Int("events", batch.Size()),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (s *BatchSender) Close() error {
	return s.writer.Close()
}
