package ports

import (
	"context"

	"github.com/bft-labs/batcher/internal/domain"
)

// BatchSender transmits change batches to a downstream system.
type BatchSender interface {
	// Send transmits a batch. Retries are the caller's responsibility.
	Send(ctx context.Context, batch *domain.Batch) error

	// Close releases any connections held by the sender.
	Close() error
}
