package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

var ErrClosed = errors.New("file output: closed")

// Option configures a file Output.
type Option func(*Output)

// WithIndent sets the indentation of the document. Default: two spaces.
// An empty string writes the document on one line.
func WithIndent(indent string) Option {
	return func(o *Output) { o.indent = indent }
}

// Output collects entity sequences and writes them on Close as a single
// JSON object keyed by entity, in the order entities were written. At
// Minimal verbosity each value is the bare sequence array; otherwise it is
// the formatted sequence object.
//
// The document is written to a temporary file in the target directory and
// renamed into place, so readers never observe a partial file.
type Output struct {
	mu        sync.Mutex
	path      string
	verbosity compactor.Verbosity
	indent    string
	order     []string
	values    map[string]any
	closed    bool
}

// New creates a file output targeting path. The parent directory must exist.
func New(path string, verbosity compactor.Verbosity, opts ...Option) (*Output, error) {
	if path == "" {
		return nil, errors.New("file output: empty path")
	}
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("file output: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("file output: %s is not a directory", dir)
	}
	o := &Output{
		path:      path,
		verbosity: verbosity,
		indent:    "  ",
		values:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Write records the sequence. A second write for the same entity replaces
// the value but keeps the entity's original position.
func (o *Output) Write(_ context.Context, seq model.EntitySequence) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}

	if _, seen := o.values[seq.EntityID]; !seen {
		o.order = append(o.order, seq.EntityID)
	}
	if o.verbosity == compactor.Minimal {
		s := seq.Sequence
		if s == nil {
			s = []string{}
		}
		o.values[seq.EntityID] = s
		return nil
	}
	o.values[seq.EntityID] = output.FormatSequence(seq, o.verbosity)
	return nil
}

// Close writes the document and renames it into place. Calling Close more
// than once is a no-op.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	doc, err := o.encodeLocked()
	if err != nil {
		return err
	}
	return o.replace(doc)
}

// Abort drops the collected sequences and leaves any existing file at the
// target path untouched. Later Close calls are no-ops.
func (o *Output) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.order = nil
	o.values = nil
	return nil
}

// encodeLocked builds the ordered JSON object by hand since Go maps do not
// keep insertion order. Caller must hold o.mu.
func (o *Output) encodeLocked() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range o.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(id)
		if err != nil {
			return nil, fmt.Errorf("file output: marshal key %q: %w", id, err)
		}
		val, err := marshal(o.values[id])
		if err != nil {
			return nil, fmt.Errorf("file output: marshal %q: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	if o.indent == "" {
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", o.indent); err != nil {
		return nil, fmt.Errorf("file output: indent: %w", err)
	}
	pretty.WriteByte('\n')
	return pretty.Bytes(), nil
}

func (o *Output) replace(doc []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(o.path), "."+filepath.Base(o.path)+".*")
	if err != nil {
		return fmt.Errorf("file output: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriterSize(tmp, defaultBufSize)
	if _, err := w.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("file output: write: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("file output: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file output: close: %w", err)
	}
	if err := os.Rename(tmpName, o.path); err != nil {
		return fmt.Errorf("file output: rename: %w", err)
	}
	return nil
}

// marshal encodes v without HTML escaping so CJK and symbols stay readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
