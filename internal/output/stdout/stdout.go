package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

// Format selects the stdout rendering.
type Format int

const (
	JSON Format = iota // one JSON object per line
	Text               // one "entity: A ➜ B" line per entity
)

// ParseFormat maps "json" or "text" to a Format. Unknown strings map to JSON.
func ParseFormat(s string) Format {
	if s == "text" {
		return Text
	}
	return JSON
}

// Option configures a stdout Output.
type Option func(*Output)

// WithFormat selects JSON or Text rendering. Default: JSON.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// WithPretty indents JSON output.
func WithPretty() Option {
	return func(o *Output) { o.pretty = true }
}

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// Output writes entity sequences to stdout.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	enc       *json.Encoder
	format    Format
	pretty    bool
	verbosity compactor.Verbosity
}

// New creates a stdout Output with verbosity-aware field omission.
func New(verbosity compactor.Verbosity, opts ...Option) *Output {
	o := &Output{w: os.Stdout, verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	o.enc = json.NewEncoder(o.w)
	o.enc.SetEscapeHTML(false)
	if o.pretty {
		o.enc.SetIndent("", "  ")
	}
	return o
}

func (o *Output) Write(_ context.Context, seq model.EntitySequence) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == Text {
		if _, err := fmt.Fprintln(o.w, output.FormatText(seq, o.verbosity)); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if err := o.enc.Encode(output.FormatSequence(seq, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
