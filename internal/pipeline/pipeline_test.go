package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/aspectflow/internal/connector"
	"github.com/crimson-sun/aspectflow/internal/engine"
	"github.com/crimson-sun/aspectflow/internal/engine/dictionary"
	"github.com/crimson-sun/aspectflow/internal/metrics"
	"github.com/crimson-sun/aspectflow/internal/model"
)

// --- mocks ---

// mockConnector replays pre-loaded records, then fails with err if set.
type mockConnector struct {
	records []model.Record
	err     error
	block   bool // wait for cancellation after the last record
}

func (m *mockConnector) read(ctx context.Context, _ io.Reader, _ connector.ConnectorConfig, emit func(model.Record) error) error {
	for _, rec := range m.records {
		if err := emit(rec); err != nil {
			return err
		}
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

func (m *mockConnector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (*connector.Stream, error) {
	cfg.Stdin = strings.NewReader("")
	return connector.StreamFrom(ctx, cfg, m.read)
}

func (m *mockConnector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Record, error) {
	cfg.Stdin = strings.NewReader("")
	return connector.QueryFrom(ctx, cfg, params, m.read)
}

type mockOutput struct {
	mu      sync.Mutex
	seqs    []model.EntitySequence
	closed  bool
	aborted bool
	err     error
}

func (m *mockOutput) Write(_ context.Context, s model.EntitySequence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seqs = append(m.seqs, s)
	return nil
}

func (m *mockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockOutput) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = true
	m.seqs = nil
	return nil
}

func (m *mockOutput) Sequences() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string, len(m.seqs))
	for _, s := range m.seqs {
		out[s.EntityID] = s.Sequence
	}
	return out
}

func (m *mockOutput) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.seqs))
	for i, s := range m.seqs {
		ids[i] = s.EntityID
	}
	return ids
}

// letters is a small dictionary where each category matches one letter.
func letters(t *testing.T, cfg engine.Config) *engine.Engine {
	t.Helper()
	dict, err := dictionary.New([]model.Category{
		{Name: "A", Keywords: []string{"a"}},
		{Name: "B", Keywords: []string{"b"}},
		{Name: "C", Keywords: []string{"c"}},
	}, dictionary.WithMatchMode(dictionary.Literal))
	require.NoError(t, err)
	return engine.New(dict, cfg,
		engine.WithClock(clockwork.NewFakeClockAt(time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC))),
		engine.WithRunIDs(func() string { return "run-1" }))
}

func recs(pairs ...string) []model.Record {
	var out []model.Record
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Record{EntityID: pairs[i], Text: pairs[i+1], Ordinal: i / 2})
	}
	return out
}

// --- tests ---

func TestStreamWritesSequences(t *testing.T) {
	conn := &mockConnector{records: recs(
		"X", "a", "Y", "b", "X", "a", "X", "b", "Y", "zzz", "X", "ab",
	)}
	out := &mockOutput{}
	p := New(conn, letters(t, engine.Config{}), out)

	res, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, out.Order())
	assert.Equal(t, map[string][]string{
		"X": {"A", "B", "A", "B"},
		"Y": {"B"},
	}, out.Sequences())
	assert.Equal(t, Result{
		RunID:    "run-1",
		Records:  6,
		Entities: 2,
		Totals:   map[string]int{"A": 3, "B": 3},
	}, res)

	require.NoError(t, p.Close())
	assert.True(t, out.closed)
}

func TestStreamReadErrorWritesNothing(t *testing.T) {
	boom := errors.New("boom")
	conn := &mockConnector{records: recs("X", "a"), err: boom}
	out := &mockOutput{}
	p := New(conn, letters(t, engine.Config{}), out)

	_, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, out.Order())
}

func TestStreamCancel(t *testing.T) {
	conn := &mockConnector{records: recs("X", "a"), block: true}
	out := &mockOutput{}
	p := New(conn, letters(t, engine.Config{}), out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Stream(ctx, connector.ConnectorConfig{})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
	assert.Empty(t, out.Order())
}

func TestStreamOutputError(t *testing.T) {
	full := errors.New("disk full")
	conn := &mockConnector{records: recs("X", "a")}
	p := New(conn, letters(t, engine.Config{}), &mockOutput{err: full})

	_, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	assert.ErrorIs(t, err, full)
}

func TestStreamMinTextLength(t *testing.T) {
	conn := &mockConnector{records: recs("X", "a", "Y", "abc", "X", "bcd")}
	out := &mockOutput{}
	p := New(conn, letters(t, engine.Config{MinTextLength: 3}), out)

	res, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, map[string][]string{
		"X": {"B", "C"},
		"Y": {"A", "B", "C"},
	}, out.Sequences())
}

func TestQueryMatchesStream(t *testing.T) {
	input := recs("X", "a", "Y", "b", "X", "a", "Z", "", "X", "c", "Y", "ca")

	streamOut := &mockOutput{}
	_, err := New(&mockConnector{records: input}, letters(t, engine.Config{}), streamOut).
		Stream(context.Background(), connector.ConnectorConfig{})
	require.NoError(t, err)

	queryOut := &mockOutput{}
	res, err := New(&mockConnector{records: input}, letters(t, engine.Config{Workers: 4}), queryOut).
		Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{})
	require.NoError(t, err)

	assert.Equal(t, streamOut.Order(), queryOut.Order())
	assert.Equal(t, streamOut.Sequences(), queryOut.Sequences())
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 6, res.Records)
	assert.Equal(t, 3, res.Entities)
}

func TestQueryEntityFilter(t *testing.T) {
	conn := &mockConnector{records: recs("X", "a", "Y", "b", "X", "c")}
	out := &mockOutput{}
	p := New(conn, letters(t, engine.Config{}), out)

	_, err := p.Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{Entities: []string{"X"}})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"X": {"A", "C"}}, out.Sequences())
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	conn := &mockConnector{records: recs("X", "a", "X", "a", "Y", "b", "Y", "")}
	p := New(conn, letters(t, engine.Config{MinTextLength: 1}), &mockOutput{}, WithMetrics(m), WithBatchSize(2))

	_, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Records))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Skipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Entities))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Matches.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Matches.WithLabelValues("B")))
}

func TestQueryTotals(t *testing.T) {
	conn := &mockConnector{records: recs("X", "ab", "Y", "b", "X", "a", "Y", "zzz")}
	res, err := New(conn, letters(t, engine.Config{}), &mockOutput{}).
		Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 2, "B": 2}, res.Totals)
}

func TestAbortDiscardsInsteadOfClosing(t *testing.T) {
	boom := errors.New("boom")
	out := &mockOutput{}
	p := New(&mockConnector{records: recs("X", "a"), err: boom}, letters(t, engine.Config{}), out)

	_, err := p.Stream(context.Background(), connector.ConnectorConfig{})
	require.ErrorIs(t, err, boom)
	require.NoError(t, p.Abort())
	assert.True(t, out.aborted)
	assert.False(t, out.closed)
}
