package engine

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/crimson-sun/aspectflow/internal/engine/dictionary"
	"github.com/crimson-sun/aspectflow/internal/engine/sequence"
	"github.com/crimson-sun/aspectflow/internal/model"
)

// Config holds engine tuning.
type Config struct {
	// MinTextLength drops records whose trimmed text is shorter than this
	// many runes. Their entity is still reported. 0 keeps everything.
	MinTextLength int
	// Workers bounds per-entity parallelism in Process. Values < 2 run
	// sequentially.
	Workers int
	// Detail keeps per-record tags in each sequence.
	Detail bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp results. Default: real time.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunIDs sets the run ID generator. Default: random UUIDs.
func WithRunIDs(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// Engine orchestrates the filter → tag → sequence pipeline.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	dict  *dictionary.Dictionary
	cfg   Config
	clock clockwork.Clock
	newID func() string
}

// New creates an Engine over the given dictionary.
func New(dict *dictionary.Dictionary, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		dict:  dict,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dictionary returns the engine's category dictionary.
func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

// Tag returns the categories matched by text, in declaration order.
func (e *Engine) Tag(text string) []string {
	return e.dict.Tag(text)
}

// Keep reports whether a record passes the minimum text length filter.
func (e *Engine) Keep(rec model.Record) bool {
	if e.cfg.MinTextLength <= 0 {
		return true
	}
	return utf8.RuneCountInString(strings.TrimSpace(rec.Text)) >= e.cfg.MinTextLength
}

// Process extracts one sequence per entity from records, in first-seen
// entity order. It only fails if ctx is cancelled.
func (e *Engine) Process(ctx context.Context, records []model.Record) ([]model.EntitySequence, error) {
	kept := records
	var dropped []string
	if e.cfg.MinTextLength > 0 {
		kept = make([]model.Record, 0, len(records))
		for _, rec := range records {
			if e.Keep(rec) {
				kept = append(kept, rec)
			} else {
				dropped = append(dropped, rec.EntityID)
			}
		}
	}

	seqs, err := sequence.ExtractParallel(ctx, kept, e.dict, e.cfg.Workers, e.sequenceOptions()...)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		seqs = restoreEntities(records, seqs)
	}
	e.stamp(seqs, e.newID())
	return seqs, nil
}

// restoreEntities re-inserts entities whose records were all filtered, so
// the result keeps one entry per entity in the order of the full input.
func restoreEntities(records []model.Record, seqs []model.EntitySequence) []model.EntitySequence {
	byID := make(map[string]model.EntitySequence, len(seqs))
	for _, s := range seqs {
		byID[s.EntityID] = s
	}
	out := make([]model.EntitySequence, 0, len(seqs))
	for _, g := range sequence.Group(records) {
		s, ok := byID[g.EntityID]
		if !ok {
			s = model.EntitySequence{EntityID: g.EntityID, Sequence: []string{}, Counts: map[string]int{}}
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) sequenceOptions() []sequence.Option {
	if e.cfg.Detail {
		return []sequence.Option{sequence.WithDetail()}
	}
	return nil
}

func (e *Engine) stamp(seqs []model.EntitySequence, runID string) {
	now := e.clock.Now().UTC()
	for i := range seqs {
		seqs[i].RunID = runID
		seqs[i].GeneratedAt = now
	}
}

// Run is an incremental extraction over a record stream. A Run is not safe
// for concurrent use.
type Run struct {
	engine  *Engine
	id      string
	builder *sequence.Builder
	added   int
	skipped int
}

// NewRun starts an incremental extraction with a fresh run ID.
func (e *Engine) NewRun() *Run {
	return &Run{
		engine:  e,
		id:      e.newID(),
		builder: sequence.NewBuilder(e.dict, e.sequenceOptions()...),
	}
}

// ID returns the run ID stamped on every result.
func (r *Run) ID() string {
	return r.id
}

// Add feeds one record. It returns the tagged record and false if the
// record was skipped by the length filter.
func (r *Run) Add(rec model.Record) (model.TaggedRecord, bool) {
	if !r.engine.Keep(rec) {
		r.builder.Touch(rec.EntityID)
		r.skipped++
		return model.TaggedRecord{Record: rec}, false
	}
	r.added++
	return r.builder.Add(rec), true
}

// Stats returns the number of records added and skipped so far.
func (r *Run) Stats() (added, skipped int) {
	return r.added, r.skipped
}

// Finish returns the sequences accumulated so far, stamped with the run ID.
func (r *Run) Finish() []model.EntitySequence {
	seqs := r.builder.Sequences()
	r.engine.stamp(seqs, r.id)
	return seqs
}
