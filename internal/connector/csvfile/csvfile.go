package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/crimson-sun/aspectflow/internal/connector"
	"github.com/crimson-sun/aspectflow/internal/model"
)

const defaultEntityColumn = "who"

// preferredText lists text column names tried in order when none is configured.
var preferredText = []string{"text", "utterance", "content", "dialogue"}

func init() {
	connector.Register("csv", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads records from a CSV file with a header row.
type Connector struct{}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (*connector.Stream, error) {
	return connector.StreamFrom(ctx, cfg, read)
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Record, error) {
	return connector.QueryFrom(ctx, cfg, params, read)
}

// columns holds the resolved header indexes.
type columns struct {
	entity int
	text   int
}

func read(ctx context.Context, r io.Reader, cfg connector.ConnectorConfig, emit func(model.Record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: read header: %w", err)
	}
	cols, err := resolve(header, cfg)
	if err != nil {
		return err
	}
	slog.Info("csv columns resolved", "entity", header[cols.entity], "text", header[cols.text])

	for ordinal := 0; ; ordinal++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		rec := model.Record{
			EntityID: field(row, cols.entity),
			Text:     strings.TrimSpace(field(row, cols.text)),
			Ordinal:  ordinal,
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}

// resolve finds the entity and text columns. The text column is the
// configured one, else the first preferred name present, else the first
// column that is not the entity column.
func resolve(header []string, cfg connector.ConnectorConfig) (columns, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	entityName := cfg.EntityField
	if entityName == "" {
		entityName = defaultEntityColumn
	}
	entity := index(header, entityName)
	if entity < 0 {
		return columns{}, fmt.Errorf("%w: entity column %q not in header %v", connector.ErrMissingColumn, entityName, header)
	}

	if cfg.TextField != "" {
		text := index(header, cfg.TextField)
		if text < 0 {
			return columns{}, fmt.Errorf("%w: text column %q not in header %v", connector.ErrMissingColumn, cfg.TextField, header)
		}
		return columns{entity: entity, text: text}, nil
	}
	for _, name := range preferredText {
		if i := index(header, name); i >= 0 && i != entity {
			return columns{entity: entity, text: i}, nil
		}
	}
	for i := range header {
		if i != entity {
			return columns{entity: entity, text: i}, nil
		}
	}
	return columns{}, fmt.Errorf("%w: no text column besides %q", connector.ErrMissingColumn, entityName)
}

func index(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// field returns row[i], or "" for short rows.
func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
