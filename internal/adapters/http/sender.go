package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/bft-labs/batcher/internal/domain"
	"github.com/bft-labs/batcher/internal/ports"
	"github.com/bft-labs/batcher/pkg/log"
)

const changesEndpoint = "/v1/ingest/changes"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// BatchSender implements ports.BatchSender by POSTing JSON to the ingest service.
type BatchSender struct {
	client     ports.HTTPClient
	serviceURL string
	authKey    string
	hostname   string
	logger     ports.Logger
}

// NewBatchSender creates a new HTTP batch sender.
func NewBatchSender(client ports.HTTPClient, serviceURL, authKey string, logger ports.Logger) *BatchSender {
	hostname, _ := os.Hostname()
	return &BatchSender{
		client:     client,
		serviceURL: serviceURL,
		authKey:    authKey,
		hostname:   hostname,
		logger:     log.OrNoop(logger),
	}
}

// Send transmits a batch of change events to the remote service.
func (s *BatchSender) Send(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return domain.ErrEmptyBatch
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	url := s.serviceURL + changesEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Batch-Id", batch.ID)
	req.Header.Set("X-Agent-Hostname", s.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	if s.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.authKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("batch sent",
		log.String("batch_id", batch.ID),
		log.Int("events", batch.Size()),
		log.Int("bytes", len(body)),
	)
	return nil
}

// Close implements ports.BatchSender. HTTP connections are owned by the client.
func (s *BatchSender) Close() error {
	return nil
}
