package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/aspectflow/internal/connector"
	"github.com/crimson-sun/aspectflow/internal/engine"
	"github.com/crimson-sun/aspectflow/internal/engine/sequence"
	"github.com/crimson-sun/aspectflow/internal/metrics"
	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

const defaultBatchSize = 1000

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run statistics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithBatchSize sets how many records pass between progress log lines.
// 0 disables progress logging. Default: 1000.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) { p.batchSize = n }
}

// Result summarises one pipeline run.
type Result struct {
	RunID    string
	Records  int
	Skipped  int
	Entities int
	Totals   map[string]int // category occurrences across all entities
}

// Pipeline connects a connector, engine, and output into a processing pipeline.
type Pipeline struct {
	connector connector.Connector
	engine    *engine.Engine
	output    output.Output
	metrics   *metrics.Metrics
	batchSize int
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, eng *engine.Engine, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		engine:    eng,
		output:    out,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream feeds records into an incremental run as the connector produces
// them, then writes one sequence per entity once the input ends. Blocks
// until end of input, a read error, or cancellation. Nothing is written
// if the run does not reach end of input.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) (Result, error) {
	s, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline stream: %w", err)
	}

	run := p.engine.NewRun()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return Result{RunID: run.ID()}, ctx.Err()
		case rec, ok := <-s.C:
			if !ok {
				if err := s.Err(); err != nil {
					return Result{RunID: run.ID()}, fmt.Errorf("pipeline stream: %w", err)
				}
				return p.finish(ctx, run)
			}
			_, kept := run.Add(rec)
			if p.metrics != nil {
				p.metrics.ObserveRecord(kept)
			}
			n++
			if p.batchSize > 0 && n%p.batchSize == 0 {
				added, skipped := run.Stats()
				slog.Info("processed records", "count", n, "added", added, "skipped", skipped, "run_id", run.ID())
			}
		}
	}
}

func (p *Pipeline) finish(ctx context.Context, run *engine.Run) (Result, error) {
	added, skipped := run.Stats()
	seqs := run.Finish()
	res := Result{
		RunID:    run.ID(),
		Records:  added + skipped,
		Skipped:  skipped,
		Entities: len(seqs),
		Totals:   sequence.Summary(seqs),
	}
	if err := p.write(ctx, seqs); err != nil {
		return res, err
	}
	slog.Info("run complete", "run_id", res.RunID, "records", res.Records, "skipped", res.Skipped, "entities", res.Entities, "totals", res.Totals)
	return res, nil
}

// Query runs the pipeline in one-shot mode: the connector's records are
// collected first and extracted with the engine's worker limit.
func (p *Pipeline) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) (Result, error) {
	recs, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline query: %w", err)
	}

	seqs, err := p.engine.Process(ctx, recs)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline process: %w", err)
	}

	res := Result{Records: len(recs), Entities: len(seqs), Totals: sequence.Summary(seqs)}
	if len(seqs) > 0 {
		res.RunID = seqs[0].RunID
	}
	for _, rec := range recs {
		kept := p.engine.Keep(rec)
		if !kept {
			res.Skipped++
		}
		if p.metrics != nil {
			p.metrics.ObserveRecord(kept)
		}
	}
	if err := p.write(ctx, seqs); err != nil {
		return res, err
	}
	slog.Info("query complete", "run_id", res.RunID, "records", res.Records, "skipped", res.Skipped, "entities", res.Entities, "totals", res.Totals)
	return res, nil
}

func (p *Pipeline) write(ctx context.Context, seqs []model.EntitySequence) error {
	for _, seq := range seqs {
		if p.metrics != nil {
			p.metrics.ObserveSequence(seq)
		}
		if err := p.output.Write(ctx, seq); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	return nil
}

// Close shuts down the output, committing what was written.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

// Abort shuts down the output after a failed or cancelled run. Outputs that
// hold results until Close discard them, so a previous result file survives.
func (p *Pipeline) Abort() error {
	return output.Abort(p.output)
}
