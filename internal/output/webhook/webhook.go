package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	maxRetries           = 3
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithBatchSize sets the number of sequences accumulated before a flush. Default: 50.
func WithBatchSize(n int) Option {
	return func(o *Output) { o.batchSize = n }
}

// WithFlushInterval sets the maximum time between flushes. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Output) { o.flushInterval = d }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithBackoff sets the base delay between retries, doubled per attempt. Default: 1s.
func WithBackoff(d time.Duration) Option {
	return func(o *Output) { o.backoff = d }
}

// WithOnError sets a callback invoked when a timer-triggered flush fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(o *Output) { o.errFunc = f }
}

// Output POSTs entity sequences to an HTTP endpoint, each batch a JSON array
// of sequences formatted at the configured verbosity. A batch goes out when
// it holds batchSize entities or flushInterval after its first entity. A
// receiver answering 5xx gets the same batch again, up to maxRetries times,
// with the wait doubling from the backoff base.
type Output struct {
	client        *http.Client
	url           string
	headers       map[string]string
	verbosity     compactor.Verbosity
	batchSize     int
	flushInterval time.Duration
	backoff       time.Duration
	errFunc       func(error)
	mu            sync.Mutex
	pending       []model.EntitySequence
	timer         *time.Timer
}

// New creates a webhook output targeting the given URL.
func New(url string, verbosity compactor.Verbosity, opts ...Option) *Output {
	o := &Output{
		client:        &http.Client{Timeout: defaultTimeout},
		url:           url,
		verbosity:     verbosity,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		backoff:       time.Second,
		errFunc:       func(err error) { slog.Warn("webhook flush error", "error", err) },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write adds one entity's sequence to the open batch and posts the batch once
// it is full. The first entity of a batch arms the interval timer, so a run
// with fewer entities than batchSize still delivers before Close.
func (o *Output) Write(ctx context.Context, seq model.EntitySequence) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, output.FormatSequence(seq, o.verbosity))

	if len(o.pending) >= o.batchSize {
		return o.flushLocked(ctx)
	}

	if len(o.pending) == 1 {
		o.timer = time.AfterFunc(o.flushInterval, func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if err := o.flushLocked(context.Background()); err != nil {
				o.errFunc(err)
			}
		})
	}
	return nil
}

// Close flushes any remaining sequences and stops the timer.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.pending) > 0 {
		return o.flushLocked(context.Background())
	}
	return nil
}

// Abort stops the timer and drops the unsent batch.
func (o *Output) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pending = nil
	return nil
}

// flushLocked sends the pending batch via HTTP POST. Caller must hold o.mu.
func (o *Output) flushLocked(ctx context.Context) error {
	if len(o.pending) == 0 {
		return nil
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}

	batch := o.pending
	o.pending = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	return o.postWithRetry(ctx, body)
}

// postWithRetry posts one batch, retrying while the receiver answers 5xx.
func (o *Output) postWithRetry(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(o.backoff << (attempt - 1)):
			case <-ctx.Done():
				return fmt.Errorf("webhook: %w", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range o.headers {
			req.Header.Set(k, v)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("webhook: HTTP %d", resp.StatusCode)

		// Only retry on 5xx server errors.
		if resp.StatusCode < 500 {
			return lastErr
		}
		slog.Debug("webhook retry", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return lastErr
}
