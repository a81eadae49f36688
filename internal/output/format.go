package output

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/model"
)

// Arrow separates categories in text renderings.
const Arrow = " ➜ "

// FormatSequence returns a copy of the sequence with fields stripped
// according to verbosity.
func FormatSequence(seq model.EntitySequence, verbosity compactor.Verbosity) model.EntitySequence {
	return compactor.New(verbosity).Compact(seq)
}

// FormatText renders a sequence as one human-readable line:
//
//	小明: 靈感來源 ➜ 主題發想 (3 records, 2 tagged)
//
// The record totals are omitted at Minimal.
func FormatText(seq model.EntitySequence, verbosity compactor.Verbosity) string {
	var b strings.Builder
	b.WriteString(seq.EntityID)
	b.WriteString(": ")
	if len(seq.Sequence) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(seq.Sequence, Arrow))
	}
	if verbosity != compactor.Minimal {
		fmt.Fprintf(&b, " (%d records, %d tagged)", seq.Records, seq.Tagged)
	}
	return b.String()
}
