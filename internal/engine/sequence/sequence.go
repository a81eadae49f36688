package sequence

import (
	"context"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/aspectflow/internal/model"
)

// Tagger returns the categories matched by a text, in a fixed order.
type Tagger interface {
	Tag(text string) []string
}

// track is the running state of one entity.
type track struct {
	entityID string
	prev     string // last appended category; "" before the first
	seq      []string
	counts   map[string]int
	records  int
	tagged   int
	detail   []model.TaggedRecord
}

// add appends the record's categories, suppressing a category equal to the
// one appended immediately before it.
func (t *track) add(rec model.Record, tags []string, keepDetail bool) {
	t.records++
	if keepDetail {
		t.detail = append(t.detail, model.TaggedRecord{Record: rec, Categories: tags})
	}
	if len(tags) == 0 {
		return
	}
	t.tagged++
	for _, c := range tags {
		t.counts[c]++
		if c != t.prev {
			t.seq = append(t.seq, c)
			t.prev = c
		}
	}
}

// result snapshots the track; the returned value shares no memory with it.
func (t *track) result() model.EntitySequence {
	seq := make([]string, len(t.seq))
	copy(seq, t.seq)
	return model.EntitySequence{
		EntityID: t.entityID,
		Sequence: seq,
		Counts:   maps.Clone(t.counts),
		Records:  t.records,
		Tagged:   t.tagged,
		Detail:   slices.Clone(t.detail),
	}
}

func newTrack(entityID string) *track {
	return &track{entityID: entityID, counts: make(map[string]int)}
}

// Builder extracts sequences one record at a time. Entities are reported in
// the order they were first seen. A Builder is not safe for concurrent use.
type Builder struct {
	tagger     Tagger
	keepDetail bool
	order      []*track
	tracks     map[string]*track
}

// Option configures a Builder.
type Option func(*Builder)

// WithDetail retains every tagged record in the result's Detail field.
func WithDetail() Option {
	return func(b *Builder) { b.keepDetail = true }
}

// NewBuilder creates a Builder that tags texts with the given tagger.
func NewBuilder(tagger Tagger, opts ...Option) *Builder {
	b := &Builder{tagger: tagger, tracks: make(map[string]*track)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add tags the record and extends its entity's sequence.
func (b *Builder) Add(rec model.Record) model.TaggedRecord {
	tags := b.tagger.Tag(rec.Text)
	b.trackFor(rec.EntityID).add(rec, tags, b.keepDetail)
	return model.TaggedRecord{Record: rec, Categories: tags}
}

// Touch registers an entity without adding a record, so it is reported
// even if all of its records are filtered out upstream.
func (b *Builder) Touch(entityID string) {
	b.trackFor(entityID)
}

func (b *Builder) trackFor(entityID string) *track {
	t, ok := b.tracks[entityID]
	if !ok {
		t = newTrack(entityID)
		b.tracks[entityID] = t
		b.order = append(b.order, t)
	}
	return t
}

// Sequences returns the current sequence of every entity seen so far.
func (b *Builder) Sequences() []model.EntitySequence {
	out := make([]model.EntitySequence, len(b.order))
	for i, t := range b.order {
		out[i] = t.result()
	}
	return out
}

// Len returns the number of entities seen so far.
func (b *Builder) Len() int {
	return len(b.order)
}

// Extract groups records by entity, keeping each entity's input order, and
// returns one sequence per entity in first-seen order.
func Extract(records []model.Record, tagger Tagger, opts ...Option) []model.EntitySequence {
	b := NewBuilder(tagger, opts...)
	for _, rec := range records {
		b.Add(rec)
	}
	return b.Sequences()
}

// ExtractParallel is Extract with entities processed concurrently by up to
// workers goroutines. The tagger must be safe for concurrent use. The result
// is identical to Extract. Only a done ctx makes it fail.
func ExtractParallel(ctx context.Context, records []model.Record, tagger Tagger, workers int, opts ...Option) ([]model.EntitySequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers <= 1 {
		return Extract(records, tagger, opts...), nil
	}

	groups := Group(records)
	out := make([]model.EntitySequence, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, grp := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := NewBuilder(tagger, opts...)
			b.Touch(grp.EntityID)
			for _, rec := range grp.Records {
				b.Add(rec)
			}
			out[i] = b.Sequences()[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EntityRecords is one entity's records in input order.
type EntityRecords struct {
	EntityID string
	Records  []model.Record
}

// Group partitions records by entity. Groups are ordered by first
// occurrence and records keep their relative order; nothing is sorted.
func Group(records []model.Record) []EntityRecords {
	var groups []EntityRecords
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.EntityID]
		if !ok {
			i = len(groups)
			index[rec.EntityID] = i
			groups = append(groups, EntityRecords{EntityID: rec.EntityID})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// Summary aggregates category counts across all sequences, the way a
// report would chart overall aspect frequency.
func Summary(seqs []model.EntitySequence) map[string]int {
	total := make(map[string]int)
	for _, s := range seqs {
		for c, n := range s.Counts {
			total[c] += n
		}
	}
	return total
}
