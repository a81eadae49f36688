package dictionary

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/aspectflow/internal/model"
)

// MatchMode controls how a keyword is interpreted.
type MatchMode int

const (
	Pattern MatchMode = iota // keyword is a regular expression
	Literal                  // keyword is a plain substring
)

const defaultMatchTimeout = 250 * time.Millisecond

var (
	ErrEmptyName         = errors.New("dictionary: empty category name")
	ErrDuplicateCategory = errors.New("dictionary: duplicate category")
	ErrEmptyKeyword      = errors.New("dictionary: empty keyword")
	ErrInvalidPattern    = errors.New("dictionary: invalid keyword pattern")
	ErrUnknownMatchMode  = errors.New("dictionary: unknown match mode")
	ErrUnknownPreset     = errors.New("dictionary: unknown preset")
)

// ParseMatchMode converts "pattern" or "literal" to a MatchMode.
// The empty string selects Pattern.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pattern", "regex":
		return Pattern, nil
	case "literal", "substring":
		return Literal, nil
	default:
		return Pattern, fmt.Errorf("%w: %q", ErrUnknownMatchMode, s)
	}
}

func (m MatchMode) String() string {
	if m == Literal {
		return "literal"
	}
	return "pattern"
}

type options struct {
	mode      MatchMode
	normalize bool
	timeout   time.Duration
}

// Option configures a Dictionary.
type Option func(*options)

// WithMatchMode sets how keywords are interpreted. Default: Pattern.
func WithMatchMode(m MatchMode) Option {
	return func(o *options) { o.mode = m }
}

// WithNormalize applies Unicode NFKC normalization to keywords and texts
// before matching, so full-width and compatibility forms match their
// canonical equivalents. Default: off.
func WithNormalize(on bool) Option {
	return func(o *options) { o.normalize = on }
}

// WithMatchTimeout bounds a single keyword match. A match that times out
// counts as no match. Default: 250ms.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

type entry struct {
	name     string
	keywords []string
	patterns []*regexp2.Regexp
}

// Dictionary is an immutable, ordered set of categories with compiled
// keyword matchers. Safe for concurrent use.
type Dictionary struct {
	entries   []entry
	mode      MatchMode
	normalize bool
}

// New validates and compiles the given categories. Declaration order is
// preserved and determines the order of Tag results.
func New(categories []model.Category, opts ...Option) (*Dictionary, error) {
	o := options{timeout: defaultMatchTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dictionary{
		entries:   make([]entry, 0, len(categories)),
		mode:      o.mode,
		normalize: o.normalize,
	}
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, ErrEmptyName
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
		}
		seen[c.Name] = struct{}{}

		e := entry{name: c.Name, keywords: slices.Clone(c.Keywords)}
		for _, kw := range c.Keywords {
			re, err := compile(kw, o)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", c.Name, err)
			}
			e.patterns = append(e.patterns, re)
		}
		d.entries = append(d.entries, e)
	}
	return d, nil
}

func compile(keyword string, o options) (*regexp2.Regexp, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	expr := keyword
	if o.normalize {
		expr = norm.NFKC.String(expr)
	}
	if o.mode == Literal {
		expr = regexp2.Escape(expr)
	}
	re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, keyword, err)
	}
	re.MatchTimeout = o.timeout
	return re, nil
}

// Tag returns the names of every category with at least one keyword found
// in text, in declaration order. The result is nil when nothing matches.
func (d *Dictionary) Tag(text string) []string {
	if text == "" {
		return nil
	}
	if d.normalize {
		text = norm.NFKC.String(text)
	}
	var found []string
	for i := range d.entries {
		if d.entries[i].matches(text) {
			found = append(found, d.entries[i].name)
		}
	}
	return found
}

func (e *entry) matches(text string) bool {
	for i, re := range e.patterns {
		ok, err := re.MatchString(text)
		if err != nil {
			slog.Debug("keyword match aborted", "category", e.name, "keyword", e.keywords[i], "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Names returns the category names in declaration order.
func (d *Dictionary) Names() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.name
	}
	return names
}

// Categories returns a copy of the source categories.
func (d *Dictionary) Categories() []model.Category {
	cats := make([]model.Category, len(d.entries))
	for i, e := range d.entries {
		cats[i] = model.Category{Name: e.name, Keywords: slices.Clone(e.keywords)}
	}
	return cats
}

// Len returns the number of categories.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Mode returns the keyword interpretation the dictionary was compiled with.
func (d *Dictionary) Mode() MatchMode {
	return d.mode
}
