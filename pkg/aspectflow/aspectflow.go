package aspectflow

import (
	"context"
	"fmt"

	"github.com/crimson-sun/aspectflow/internal/engine"
	"github.com/crimson-sun/aspectflow/internal/engine/dictionary"
	"github.com/crimson-sun/aspectflow/internal/model"
)

// Aspectflow tags text and extracts aspect sequences against one compiled
// dictionary. Safe for concurrent use.
type Aspectflow struct {
	engine *engine.Engine
	dict   *dictionary.Dictionary
}

// New compiles the configured dictionary. It fails on an unknown preset,
// an unreadable dictionary file, an empty or duplicate category name, an
// empty keyword, or a keyword that is not a valid pattern.
func New(opts ...Option) (*Aspectflow, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mode, err := dictionary.ParseMatchMode(o.matchMode)
	if err != nil {
		return nil, fmt.Errorf("aspectflow: %w", err)
	}
	dictOpts := []dictionary.Option{
		dictionary.WithMatchMode(mode),
		dictionary.WithNormalize(o.normalize),
		dictionary.WithMatchTimeout(o.matchTimeout),
	}

	var dict *dictionary.Dictionary
	if len(o.categories) > 0 {
		dict, err = dictionary.New(toModel(o.categories), dictOpts...)
	} else {
		dict, err = dictionary.Resolve(o.dictFile, o.preset, dictOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("aspectflow: %w", err)
	}

	eng := engine.New(dict, engine.Config{
		MinTextLength: o.minTextLength,
		Workers:       o.workers,
	})
	return &Aspectflow{engine: eng, dict: dict}, nil
}

// Tag returns the categories whose keywords occur in text, in dictionary
// order. The result is empty when nothing matches.
func (a *Aspectflow) Tag(text string) []string {
	return a.dict.Tag(text)
}

// ExtractSequences groups records by entity and returns each entity's
// category sequence. Every entity present in records has an entry, which
// may be empty.
func (a *Aspectflow) ExtractSequences(records []Record) map[string][]string {
	// Process only fails on cancellation.
	seqs, _ := a.engine.Process(context.Background(), toRecords(records))
	out := make(map[string][]string, len(seqs))
	for _, s := range seqs {
		out[s.EntityID] = s.Sequence
	}
	return out
}

// Sequences is ExtractSequences with entity order, statistics and
// cancellation. Entities are returned in the order they first appear.
func (a *Aspectflow) Sequences(ctx context.Context, records []Record) ([]Sequence, error) {
	seqs, err := a.engine.Process(ctx, toRecords(records))
	if err != nil {
		return nil, err
	}
	out := make([]Sequence, len(seqs))
	for i, s := range seqs {
		out[i] = Sequence{
			Entity:     s.EntityID,
			Categories: s.Sequence,
			Counts:     s.Counts,
			Records:    s.Records,
			Tagged:     s.Tagged,
		}
	}
	return out, nil
}

// Categories returns the active dictionary. The result is a copy.
func (a *Aspectflow) Categories() []Category {
	cats := a.dict.Categories()
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = Category{Name: c.Name, Keywords: c.Keywords}
	}
	return out
}

// Presets lists the built-in dictionary names.
func Presets() []string {
	return dictionary.Presets()
}

func toModel(cats []Category) []model.Category {
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		out[i] = model.Category{Name: c.Name, Keywords: c.Keywords}
	}
	return out
}

func toRecords(records []Record) []model.Record {
	out := make([]model.Record, len(records))
	for i, r := range records {
		out[i] = model.Record{EntityID: r.Entity, Text: r.Text, Ordinal: i}
	}
	return out
}
