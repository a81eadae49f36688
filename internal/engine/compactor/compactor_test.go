package compactor

import (
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/aspectflow/internal/model"
)

func sample() model.EntitySequence {
	return model.EntitySequence{
		EntityID:    "s1",
		Sequence:    []string{"A", "B"},
		Counts:      map[string]int{"A": 2, "B": 1},
		Records:     3,
		Tagged:      2,
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Detail: []model.TaggedRecord{
			{Record: model.Record{EntityID: "s1", Text: strings.Repeat("畫", 2500)}, Categories: []string{"A"}},
		},
	}
}

func TestCompactMinimal(t *testing.T) {
	got := New(Minimal).Compact(sample())
	if got.EntityID != "s1" || len(got.Sequence) != 2 {
		t.Fatalf("entity/sequence not preserved: %+v", got)
	}
	if got.Counts != nil || got.Records != 0 || got.RunID != "" || got.Detail != nil {
		t.Fatalf("minimal should strip everything else, got %+v", got)
	}
}

func TestCompactStandard(t *testing.T) {
	got := New(Standard).Compact(sample())
	if got.Counts["A"] != 2 || got.Records != 3 || got.Tagged != 2 {
		t.Fatalf("standard should keep counts, got %+v", got)
	}
	if got.RunID != "" || !got.GeneratedAt.IsZero() || got.Detail != nil {
		t.Fatalf("standard should drop run metadata and detail, got %+v", got)
	}
}

func TestCompactFullTruncatesDetail(t *testing.T) {
	in := sample()
	got := New(Full).Compact(in)
	if got.RunID != "run-1" {
		t.Fatalf("full should keep RunID, got %q", got.RunID)
	}
	text := got.Detail[0].Text
	if !strings.HasSuffix(text, "...") {
		t.Fatal("expected truncated detail text to end with ...")
	}
	if n := len([]rune(text)); n != maxDetailRunes+3 {
		t.Fatalf("truncated rune count = %d, want %d", n, maxDetailRunes+3)
	}
	if len([]rune(in.Detail[0].Text)) != 2500 {
		t.Fatal("Compact must not modify the input detail")
	}
}

func TestParseVerbosity(t *testing.T) {
	cases := map[string]Verbosity{
		"minimal":  Minimal,
		"FULL":     Full,
		"standard": Standard,
		"bogus":    Standard,
	}
	for in, want := range cases {
		if got := ParseVerbosity(in); got != want {
			t.Errorf("ParseVerbosity(%q) = %v, want %v", in, got, want)
		}
		if want != Standard && ParseVerbosity(want.String()) != want {
			t.Errorf("String round trip failed for %v", want)
		}
	}
}
