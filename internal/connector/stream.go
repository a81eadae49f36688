package connector

import (
	"context"
	"errors"
	"io"

	"github.com/crimson-sun/aspectflow/internal/model"
)

const streamBuffer = 256

var errLimit = errors.New("connector: limit reached")

// Stream is a channel of records plus the error, if any, that ended it.
type Stream struct {
	C    <-chan model.Record
	done chan struct{}
	err  error
}

// Err blocks until the stream has ended and returns the error that ended
// it, or nil at clean end of input.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// ReadFunc decodes records from r and passes each to emit, stopping at the
// first error emit returns.
type ReadFunc func(ctx context.Context, r io.Reader, cfg ConnectorConfig, emit func(model.Record) error) error

// StreamFrom opens cfg.Input and decodes it with read on a background
// goroutine.
func StreamFrom(ctx context.Context, cfg ConnectorConfig, read ReadFunc) (*Stream, error) {
	rc, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ch := make(chan model.Record, streamBuffer)
	s := &Stream{C: ch, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer close(ch)
		defer rc.Close()
		s.err = read(ctx, rc, cfg, func(rec model.Record) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case ch <- rec:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s, nil
}

// QueryFrom opens cfg.Input and collects the records matching params.
func QueryFrom(ctx context.Context, cfg ConnectorConfig, params QueryParams, read ReadFunc) ([]model.Record, error) {
	rc, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var recs []model.Record
	err = read(ctx, rc, cfg, func(rec model.Record) error {
		if !params.Match(rec) {
			return nil
		}
		recs = append(recs, rec)
		if params.Limit > 0 && len(recs) >= params.Limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}
	return recs, nil
}
