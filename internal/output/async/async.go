package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the sequence) when
// the buffer is full, instead of blocking. Use for outputs where lossiness
// is acceptable, such as a best-effort webhook.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for buffered sequences to
// reach the inner output. Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async decouples sequence production from consumption via a buffered
// channel. A background goroutine drains the channel into the wrapped
// output. Errors from the inner output go to errFunc rather than to the
// caller.
type Async struct {
	inner        output.Output
	ch           chan model.EntitySequence
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu        sync.RWMutex // guards closed and sends on ch
	closed    bool
	closeOnce sync.Once
	discard   atomic.Bool // set by Abort; drain skips what is still buffered
}

// New wraps an output.Output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.EntitySequence, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write sends the sequence into the channel. By default it blocks while the
// channel is full, until ctx is done. With WithDropOnFull it returns nil
// immediately and the sequence is lost.
func (a *Async) Write(ctx context.Context, seq model.EntitySequence) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if a.dropOnFull {
		select {
		case a.ch <- seq:
		default:
			slog.Warn("async output buffer full, dropping sequence", "entity", seq.EntityID)
		}
		return nil
	}
	select {
	case a.ch <- seq:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel, waits for the drain goroutine to finish
// (with a timeout), then closes the inner output.
func (a *Async) Close() error {
	return a.shutdown(a.inner.Close)
}

// Abort stops delivery of buffered sequences and aborts the inner output.
// Only the first of Close and Abort has any effect.
func (a *Async) Abort() error {
	a.discard.Store(true)
	return a.shutdown(func() error { return output.Abort(a.inner) })
}

func (a *Async) shutdown(finish func() error) error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async output drain timed out", "pending", len(a.ch))
		}
		err = finish()
	})
	return err
}

// drain reads sequences from the channel and writes them to the inner output.
func (a *Async) drain() {
	defer close(a.done)
	for seq := range a.ch {
		if a.discard.Load() {
			continue
		}
		if err := a.inner.Write(context.Background(), seq); err != nil {
			a.errFunc(err)
		}
	}
}
