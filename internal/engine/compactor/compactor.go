package compactor

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/crimson-sun/aspectflow/internal/model"
)

// Verbosity controls how much detail is retained in emitted sequences.
type Verbosity int

const (
	Minimal  Verbosity = iota // entity and sequence only
	Standard                  // plus per-category counts and record totals
	Full                      // plus run metadata and per-record tags
)

const maxDetailRunes = 2000

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
// Unknown strings map to Standard.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Full:
		return "full"
	default:
		return "standard"
	}
}

// Compactor trims sequence payloads to a verbosity level.
type Compactor struct {
	Verbosity Verbosity
}

// New creates a Compactor with the given verbosity level.
func New(v Verbosity) *Compactor {
	return &Compactor{Verbosity: v}
}

// Compact returns a copy of seq with fields stripped according to verbosity.
// At Full, record texts in Detail are truncated to a bounded length.
func (c *Compactor) Compact(seq model.EntitySequence) model.EntitySequence {
	switch c.Verbosity {
	case Minimal:
		return model.EntitySequence{EntityID: seq.EntityID, Sequence: seq.Sequence}
	case Standard:
		seq.RunID = ""
		seq.GeneratedAt = time.Time{}
		seq.Detail = nil
		return seq
	default:
		if len(seq.Detail) > 0 {
			detail := make([]model.TaggedRecord, len(seq.Detail))
			for i, tr := range seq.Detail {
				tr.Text = truncate(tr.Text, maxDetailRunes)
				detail[i] = tr
			}
			seq.Detail = detail
		}
		return seq
	}
}

// truncate cuts s to at most n runes, appending "..." when shortened.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
