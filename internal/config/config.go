package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/crimson-sun/aspectflow/internal/engine/dictionary"
)

// Config holds all aspectflow configuration.
type Config struct {
	Connector ConnectorConfig
	Engine    EngineConfig
	Output    OutputConfig

	LogLevel    string `env:"ASPECT_LOG_LEVEL" default:"info"`
	MetricsFile string `env:"ASPECT_METRICS_FILE"`
}

// ConnectorConfig holds record source settings.
type ConnectorConfig struct {
	Provider    string `env:"ASPECT_CONNECTOR" default:"csv"`
	Input       string `env:"ASPECT_INPUT" default:"-"` // path, http(s) URL, or "-" for stdin
	APIKey      string `env:"ASPECT_INPUT_TOKEN"`       // Bearer token for URL inputs
	EntityField string `env:"ASPECT_ENTITY_COLUMN" default:"who"`
	TextField   string `env:"ASPECT_TEXT_COLUMN"`
	Entities    string `env:"ASPECT_ENTITIES"` // comma-separated filter, query mode only
	Limit       int    `env:"ASPECT_LIMIT" default:"0"`
}

// EngineConfig holds dictionary and extraction settings.
type EngineConfig struct {
	Mode          string        `env:"ASPECT_MODE" default:"stream"` // "stream" or "query"
	Dictionary    string        `env:"ASPECT_DICTIONARY"`            // YAML path; overrides Preset
	Preset        string        `env:"ASPECT_PRESET" default:"creative-process"`
	MatchMode     string        `env:"ASPECT_MATCH_MODE" default:"pattern"`
	Normalize     bool          `env:"ASPECT_NORMALIZE" default:"false"`
	MatchTimeout  time.Duration `env:"ASPECT_MATCH_TIMEOUT" default:"250ms"`
	MinTextLength int           `env:"ASPECT_MIN_TEXT_LENGTH" default:"0"`
	Workers       int           `env:"ASPECT_WORKERS" default:"1"`
	BatchSize     int           `env:"ASPECT_BATCH_SIZE" default:"1000"`
	Verbosity     string        `env:"ASPECT_VERBOSITY" default:"minimal"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Targets      string `env:"ASPECT_OUTPUT" default:"stdout"` // comma-separated: stdout, file, webhook
	Format       string `env:"ASPECT_OUTPUT_FORMAT" default:"json"`
	Pretty       bool   `env:"ASPECT_OUTPUT_PRETTY" default:"false"`
	File         string `env:"ASPECT_OUTPUT_FILE"`
	WebhookURL   string `env:"ASPECT_WEBHOOK_URL"`
	WebhookAsync bool   `env:"ASPECT_WEBHOOK_ASYNC" default:"false"`
}

var (
	modes      = []string{"stream", "query"}
	verbosity  = []string{"minimal", "standard", "full"}
	formats    = []string{"json", "text"}
	targetList = []string{"stdout", "file", "webhook"}
)

// Load reads configuration from an optional .env file and the environment.
// It does not validate; call Validate once flag overrides are applied.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Connector.Provider) == "" {
		errs = append(errs, errors.New("ASPECT_CONNECTOR is required"))
	}
	if c.Connector.Limit < 0 {
		errs = append(errs, fmt.Errorf("ASPECT_LIMIT must be >= 0, got %d", c.Connector.Limit))
	}

	if !slices.Contains(modes, c.Engine.Mode) {
		errs = append(errs, fmt.Errorf("ASPECT_MODE must be one of %v, got %q", modes, c.Engine.Mode))
	}
	if c.Engine.Dictionary == "" && c.Engine.Preset == "" {
		errs = append(errs, errors.New("one of ASPECT_DICTIONARY or ASPECT_PRESET is required"))
	}
	if _, err := dictionary.ParseMatchMode(c.Engine.MatchMode); err != nil {
		errs = append(errs, fmt.Errorf("ASPECT_MATCH_MODE: %w", err))
	}
	if c.Engine.MatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ASPECT_MATCH_TIMEOUT must be positive, got %s", c.Engine.MatchTimeout))
	}
	if c.Engine.MinTextLength < 0 {
		errs = append(errs, fmt.Errorf("ASPECT_MIN_TEXT_LENGTH must be >= 0, got %d", c.Engine.MinTextLength))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("ASPECT_WORKERS must be >= 1, got %d", c.Engine.Workers))
	}
	if c.Engine.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("ASPECT_BATCH_SIZE must be >= 0, got %d", c.Engine.BatchSize))
	}
	if !slices.Contains(verbosity, c.Engine.Verbosity) {
		errs = append(errs, fmt.Errorf("ASPECT_VERBOSITY must be one of %v, got %q", verbosity, c.Engine.Verbosity))
	}

	if !slices.Contains(formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("ASPECT_OUTPUT_FORMAT must be one of %v, got %q", formats, c.Output.Format))
	}
	targets := c.Output.List()
	if len(targets) == 0 {
		errs = append(errs, errors.New("ASPECT_OUTPUT is required"))
	}
	for _, t := range targets {
		if !slices.Contains(targetList, t) {
			errs = append(errs, fmt.Errorf("ASPECT_OUTPUT: unknown target %q (available: %v)", t, targetList))
		}
	}
	if slices.Contains(targets, "file") && c.Output.File == "" {
		errs = append(errs, errors.New("ASPECT_OUTPUT_FILE is required when ASPECT_OUTPUT includes file"))
	}
	if slices.Contains(targets, "webhook") && c.Output.WebhookURL == "" {
		errs = append(errs, errors.New("ASPECT_WEBHOOK_URL is required when ASPECT_OUTPUT includes webhook"))
	}
	return errors.Join(errs...)
}

// List returns the configured output targets, trimmed and deduplicated.
func (o OutputConfig) List() []string {
	return splitList(o.Targets)
}

// EntityList returns the configured entity filter.
func (c ConnectorConfig) EntityList() []string {
	return splitList(c.Entities)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}
