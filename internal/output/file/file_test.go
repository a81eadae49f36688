package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimson-sun/aspectflow/internal/engine/compactor"
	"github.com/crimson-sun/aspectflow/internal/model"
)

func seq(id string, cats ...string) model.EntitySequence {
	if cats == nil {
		cats = []string{}
	}
	return model.EntitySequence{EntityID: id, Sequence: cats, Records: len(cats), Tagged: len(cats)}
}

func TestMinimalDocumentKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	out, err := New(path, compactor.Minimal)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	out.Write(ctx, seq("小明", "靈感來源", "主題發想"))
	out.Write(ctx, seq("小華"))
	out.Write(ctx, seq("A", "創作實作"))
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "小明": [
    "靈感來源",
    "主題發想"
  ],
  "小華": [],
  "A": [
    "創作實作"
  ]
}
`
	if string(data) != want {
		t.Errorf("document =\n%s\nwant\n%s", data, want)
	}
}

func TestStandardDocumentHoldsObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	out, _ := New(path, compactor.Standard, WithIndent(""))
	out.Write(context.Background(), seq("a", "x", "y"))
	out.Close()

	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("expected single-line document, got %q", data)
	}
	var doc map[string]model.EntitySequence
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["a"].Records != 2 || len(doc["a"].Sequence) != 2 {
		t.Errorf("unexpected value: %+v", doc["a"])
	}
}

func TestRewriteKeepsPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	out, _ := New(path, compactor.Minimal, WithIndent(""))
	ctx := context.Background()
	out.Write(ctx, seq("a", "x"))
	out.Write(ctx, seq("b", "y"))
	out.Write(ctx, seq("a", "z"))
	out.Close()

	data, _ := os.ReadFile(path)
	if got := strings.TrimSpace(string(data)); got != `{"a":["z"],"b":["y"]}` {
		t.Errorf("got %s", got)
	}
}

func TestEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	out, _ := New(path, compactor.Minimal)
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "{}" {
		t.Errorf("got %q", data)
	}
}

func TestNoFileBeforeClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seq.json")
	out, _ := New(path, compactor.Minimal)
	out.Write(context.Background(), seq("a", "x"))

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not exist before Close, stat err = %v", err)
	}
	out.Close()

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the output file, got %d entries", len(entries))
	}
}

func TestWriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	out, _ := New(path, compactor.Minimal)
	out.Close()
	if err := out.Write(context.Background(), seq("a")); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "seq.json"), compactor.Minimal)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := New("", compactor.Minimal); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAbortKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seq.json")
	const previous = `{"old":["A"]}` + "\n"
	if err := os.WriteFile(path, []byte(previous), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := New(path, compactor.Minimal)
	if err != nil {
		t.Fatal(err)
	}
	out.Write(context.Background(), seq("a", "x"))
	if err := out.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close after Abort: %v", err)
	}
	if err := out.Write(context.Background(), seq("b")); err != ErrClosed {
		t.Errorf("Write after Abort err = %v, want ErrClosed", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != previous {
		t.Errorf("file = %q, want it untouched", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the original file, got %d entries", len(entries))
	}
}
