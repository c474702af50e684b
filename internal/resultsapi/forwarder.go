package resultsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/verte-zerg/epulse/internal/model"
)

const (
	defaultForwardTimeout = 5 * time.Second
	defaultMaxInFlight    = 4
)

// Forwarder posts results to a remote endpoint in the background. Failures are logged
// and never retried.
type Forwarder struct {
	url     string
	client  *http.Client
	timeout time.Duration
	sem     *semaphore.Weighted
	logger  *zap.Logger

	wg sync.WaitGroup
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		f.client = c
	}
}

// NewForwarder returns a forwarder posting to cfg.URL.
func NewForwarder(cfg model.ForwardConfig, logger *zap.Logger, opts ...ForwarderOption) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultForwardTimeout
	}
	inFlight := cfg.MaxInFlight
	if inFlight <= 0 {
		inFlight = defaultMaxInFlight
	}
	f := &Forwarder{
		url:     cfg.URL,
		client:  &http.Client{},
		timeout: timeout,
		sem:     semaphore.NewWeighted(int64(inFlight)),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward posts r in a background goroutine. When the in-flight limit is reached the
// result is dropped.
func (f *Forwarder) Forward(r model.Result) {
	if !f.sem.TryAcquire(1) {
		f.logger.Warn("forward queue full, dropping result", zap.String("id", r.ID))
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.sem.Release(1)
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if err := f.Post(ctx, r); err != nil {
			f.logger.Warn("forwarding result", zap.String("id", r.ID), zap.Error(err))
			return
		}
		f.logger.Debug("result forwarded", zap.String("id", r.ID))
	}()
}

// Post sends r synchronously.
func (f *Forwarder) Post(ctx context.Context, r model.Result) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Wait blocks until every in-flight post has finished.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

// Close waits for in-flight posts and releases idle connections.
func (f *Forwarder) Close() {
	f.Wait()
	f.client.CloseIdleConnections()
}
