package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/aspectflow/internal/config"
	"github.com/crimson-sun/aspectflow/internal/connector"
	"github.com/crimson-sun/aspectflow/internal/engine"
	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/metrics"
	"github.com/crimson-sun/aspectflow/internal/output"
	"github.com/crimson-sun/aspectflow/internal/output/async"
	"github.com/crimson-sun/aspectflow/internal/output/file"
	"github.com/crimson-sun/aspectflow/internal/output/multi"
	"github.com/crimson-sun/aspectflow/internal/output/stdout"
	"github.com/crimson-sun/aspectflow/internal/output/webhook"
	"github.com/crimson-sun/aspectflow/internal/pipeline"
)

func newSequenceCmd(cfg *config.Config) *cobra.Command {
	var query bool
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Extract per-entity aspect sequences from a transcript",
		Example: `  aspectflow sequence --input interview.csv --output file --output-file sequences.json
  cat turns.ndjson | aspectflow sequence --connector ndjson --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query {
				cfg.Engine.Mode = "query"
			}
			return runSequence(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Connector.Provider, "connector", cfg.Connector.Provider, "record source: "+fmt.Sprint(connector.Providers()))
	f.StringVarP(&cfg.Connector.Input, "input", "i", cfg.Connector.Input, `input file or http(s) URL, "-" for stdin`)
	f.StringVar(&cfg.Connector.EntityField, "entity-column", cfg.Connector.EntityField, "column or key that identifies the speaker")
	f.StringVar(&cfg.Connector.TextField, "text-column", cfg.Connector.TextField, "column or key holding the utterance (auto-detected when empty)")
	f.StringVar(&cfg.Connector.Entities, "entities", cfg.Connector.Entities, "comma-separated entities to keep (query mode)")
	f.IntVar(&cfg.Connector.Limit, "limit", cfg.Connector.Limit, "stop after this many records (query mode, 0 = all)")
	f.BoolVar(&query, "query", false, "read all records first, then extract with --workers")
	f.IntVar(&cfg.Engine.MinTextLength, "min-text-length", cfg.Engine.MinTextLength, "skip utterances shorter than this many characters")
	f.IntVar(&cfg.Engine.Workers, "workers", cfg.Engine.Workers, "parallel entities in query mode")
	f.IntVar(&cfg.Engine.BatchSize, "batch-size", cfg.Engine.BatchSize, "records between progress log lines (0 = off)")
	f.StringVar(&cfg.Engine.Verbosity, "verbosity", cfg.Engine.Verbosity, "minimal, standard or full")
	f.StringVarP(&cfg.Output.Targets, "output", "o", cfg.Output.Targets, "comma-separated: stdout, file, webhook")
	f.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "stdout rendering: json or text")
	f.BoolVar(&cfg.Output.Pretty, "pretty", cfg.Output.Pretty, "indent stdout JSON")
	f.StringVar(&cfg.Output.File, "output-file", cfg.Output.File, "path of the JSON document written by the file output")
	f.StringVar(&cfg.Output.WebhookURL, "webhook-url", cfg.Output.WebhookURL, "endpoint for the webhook output")
	f.BoolVar(&cfg.Output.WebhookAsync, "webhook-async", cfg.Output.WebhookAsync, "send webhook batches from a background goroutine")
	f.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this textfile at the end of the run")
	return cmd
}

func runSequence(ctx context.Context, cfg *config.Config, stdin io.Reader, stdoutW, stderrW io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dict, err := buildDictionary(cfg)
	if err != nil {
		return err
	}
	verbosity := compactor.ParseVerbosity(cfg.Engine.Verbosity)
	eng := engine.New(dict, engine.Config{
		MinTextLength: cfg.Engine.MinTextLength,
		Workers:       cfg.Engine.Workers,
		Detail:        verbosity == compactor.Full,
	})

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		return err
	}

	out, err := buildOutput(cfg, verbosity, stdoutW)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	p := pipeline.New(ctor(), eng, out,
		pipeline.WithMetrics(metrics.New(reg)),
		pipeline.WithBatchSize(cfg.Engine.BatchSize))

	connCfg := connector.ConnectorConfig{
		Provider:    cfg.Connector.Provider,
		Input:       cfg.Connector.Input,
		APIKey:      cfg.Connector.APIKey,
		EntityField: cfg.Connector.EntityField,
		TextField:   cfg.Connector.TextField,
		Stdin:       stdin,
	}

	fmt.Fprintf(stderrW, "aspectflow: starting with connector=%s dictionary=%d categories mode=%s\n",
		cfg.Connector.Provider, dict.Len(), cfg.Engine.Mode)

	var (
		res    pipeline.Result
		runErr error
	)
	if cfg.Engine.Mode == "query" {
		res, runErr = p.Query(ctx, connCfg, connector.QueryParams{
			Entities: cfg.Connector.EntityList(),
			Limit:    cfg.Connector.Limit,
		})
	} else {
		if cfg.Connector.Entities != "" || cfg.Connector.Limit > 0 {
			slog.Warn("entity filter and limit apply in query mode only")
		}
		res, runErr = p.Stream(ctx, connCfg)
	}

	// A failed or interrupted run must not replace earlier results.
	var closeErr error
	if runErr != nil || ctx.Err() != nil {
		closeErr = p.Abort()
	} else {
		closeErr = p.Close()
		if closeErr == nil {
			fmt.Fprintf(stderrW, "aspectflow: %d entities, %d records; %s\n",
				res.Entities, res.Records, formatTotals(dict.Names(), res.Totals))
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
			slog.Warn("metrics textfile not written", "error", err)
		}
	}
	return errors.Join(runErr, closeErr)
}

// formatTotals renders category totals in dictionary order, omitting
// categories that never matched.
func formatTotals(names []string, totals map[string]int) string {
	var parts []string
	for _, name := range names {
		if n := totals[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	if len(parts) == 0 {
		return "no category matches"
	}
	return strings.Join(parts, ", ")
}

// buildOutput assembles the configured targets, fanning out when there is
// more than one.
func buildOutput(cfg *config.Config, verbosity compactor.Verbosity, stdoutW io.Writer) (output.Output, error) {
	var outs []output.Output
	for _, target := range cfg.Output.List() {
		switch target {
		case "stdout":
			opts := []stdout.Option{stdout.WithWriter(stdoutW), stdout.WithFormat(stdout.ParseFormat(cfg.Output.Format))}
			if cfg.Output.Pretty {
				opts = append(opts, stdout.WithPretty())
			}
			outs = append(outs, stdout.New(verbosity, opts...))
		case "file":
			fo, err := file.New(cfg.Output.File, verbosity)
			if err != nil {
				return nil, err
			}
			outs = append(outs, fo)
		case "webhook":
			var wh output.Output = webhook.New(cfg.Output.WebhookURL, verbosity)
			if cfg.Output.WebhookAsync {
				wh = async.New(wh)
			}
			outs = append(outs, wh)
		default:
			return nil, fmt.Errorf("unknown output %q", target)
		}
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}
