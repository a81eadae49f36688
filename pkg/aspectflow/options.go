package aspectflow

import "time"

type options struct {
	categories    []Category
	dictFile      string
	preset        string
	matchMode     string
	normalize     bool
	matchTimeout  time.Duration
	minTextLength int
	workers       int
}

// Option configures an Aspectflow instance.
type Option func(*options)

// WithCategories uses the given categories, in order, as the dictionary.
// Takes precedence over WithDictionaryFile and WithPreset.
func WithCategories(cats ...Category) Option {
	return func(o *options) {
		o.categories = append(o.categories, cats...)
	}
}

// WithDictionaryFile loads the dictionary from a YAML file. Takes
// precedence over WithPreset.
func WithDictionaryFile(path string) Option {
	return func(o *options) {
		o.dictFile = path
	}
}

// WithPreset selects a built-in dictionary. Default: "creative-process".
func WithPreset(name string) Option {
	return func(o *options) {
		o.preset = name
	}
}

// WithMatchMode sets how keywords are read: "pattern" (regular
// expressions, the default) or "literal" (plain substrings). Matching is
// always case-insensitive.
func WithMatchMode(mode string) Option {
	return func(o *options) {
		o.matchMode = mode
	}
}

// WithNormalize applies Unicode NFKC normalization to keywords and texts
// before matching.
func WithNormalize(on bool) Option {
	return func(o *options) {
		o.normalize = on
	}
}

// WithMatchTimeout bounds a single keyword match. Default: 250ms.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.matchTimeout = d
	}
}

// WithMinTextLength skips records whose trimmed text has fewer runes than
// n. The speaker is still reported. Default: 0 (keep everything).
func WithMinTextLength(n int) Option {
	return func(o *options) {
		o.minTextLength = n
	}
}

// WithWorkers sets how many speakers Sequences processes in parallel.
// Default: 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func defaultOptions() options {
	return options{
		preset:       "creative-process",
		matchMode:    "pattern",
		matchTimeout: 250 * time.Millisecond,
		workers:      1,
	}
}
