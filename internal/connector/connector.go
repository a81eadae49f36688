package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crimson-sun/aspectflow/internal/connector/httpclient"
	"github.com/crimson-sun/aspectflow/internal/model"
)

var (
	ErrUnknownProvider = errors.New("connector: unknown provider")
	ErrMissingColumn   = errors.New("connector: missing column")
)

// Connector defines the interface all record sources must implement.
type Connector interface {
	// Stream reads records incrementally. The stream's channel is closed at
	// end of input, on a read error, or when ctx is cancelled.
	Stream(ctx context.Context, cfg ConnectorConfig) (*Stream, error)

	// Query reads all records matching params.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.Record, error)
}

// ConnectorConfig holds source-specific settings.
type ConnectorConfig struct {
	Provider    string
	Input       string // file path or http(s) URL; "" or "-" reads Stdin
	APIKey      string // Bearer token for URL inputs; optional
	EntityField string // grouping column/key
	TextField   string // text column/key; "" auto-selects
	Stdin       io.Reader
}

// QueryParams defines filters for one-shot reads.
type QueryParams struct {
	Entities []string // keep only these entities; empty keeps all
	Limit    int      // stop after this many records; 0 is unlimited
}

// Match reports whether rec passes the entity filter.
func (p QueryParams) Match(rec model.Record) bool {
	if len(p.Entities) == 0 {
		return true
	}
	for _, e := range p.Entities {
		if e == rec.EntityID {
			return true
		}
	}
	return false
}

// Open returns a reader for cfg.Input. URL inputs are downloaded as they
// are read; ctx bounds the download.
func Open(ctx context.Context, cfg ConnectorConfig) (io.ReadCloser, error) {
	if cfg.Input == "" || cfg.Input == "-" {
		if cfg.Stdin != nil {
			return io.NopCloser(cfg.Stdin), nil
		}
		return io.NopCloser(os.Stdin), nil
	}
	if IsURL(cfg.Input) {
		rc, err := httpclient.New(cfg.APIKey).Open(ctx, cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("connector: fetch %s: %w", cfg.Input, err)
		}
		return rc, nil
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("connector: open %s: %w", cfg.Input, err)
	}
	return f, nil
}

// IsURL reports whether input names an http or https resource.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
