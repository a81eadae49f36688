package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crimson-sun/aspectflow/internal/connector"
	"github.com/crimson-sun/aspectflow/internal/model"
)

const (
	defaultEntityKey = "who"
	defaultTextKey   = "text"
	maxLineSize      = 4 * 1024 * 1024
)

func init() {
	connector.Register("ndjson", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads one JSON object per line.
type Connector struct{}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (*connector.Stream, error) {
	return connector.StreamFrom(ctx, cfg, read)
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Record, error) {
	return connector.QueryFrom(ctx, cfg, params, read)
}

func read(ctx context.Context, r io.Reader, cfg connector.ConnectorConfig, emit func(model.Record) error) error {
	entityKey := cfg.EntityField
	if entityKey == "" {
		entityKey = defaultEntityKey
	}
	textKey := cfg.TextField
	if textKey == "" {
		textKey = defaultTextKey
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	ordinal := 0
	for line := 1; sc.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return fmt.Errorf("ndjson: line %d: %w", line, err)
		}
		entity, ok := obj[entityKey]
		if !ok {
			return fmt.Errorf("%w: line %d has no %q key", connector.ErrMissingColumn, line, entityKey)
		}
		rec := model.Record{
			EntityID: stringify(entity),
			Text:     strings.TrimSpace(stringify(obj[textKey])),
			Ordinal:  ordinal,
		}
		ordinal++
		if err := emit(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ndjson: %w", err)
	}
	return nil
}

// stringify renders a decoded JSON value as text; null becomes "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
