package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/crimson-sun/aspectflow/internal/model"
	"github.com/crimson-sun/aspectflow/internal/output"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	seqs   []model.EntitySequence
	closed bool
	err    error // if set, Write and Close return this error
}

func (m *mockOutput) Write(_ context.Context, seq model.EntitySequence) error {
	m.seqs = append(m.seqs, seq)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testSequence(id string) model.EntitySequence {
	return model.EntitySequence{EntityID: id, Sequence: []string{"靈感來源", "主題發想"}}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b, c := &mockOutput{}, &mockOutput{}, &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), testSequence("小明")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, out := range []*mockOutput{a, b, c} {
		if len(out.seqs) != 1 {
			t.Fatalf("output %d: got %d sequences, want 1", i, len(out.seqs))
		}
		if out.seqs[0].EntityID != "小明" {
			t.Errorf("output %d: got entity %q", i, out.seqs[0].EntityID)
		}
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	diskFull := errors.New("disk full")
	failing := &mockOutput{err: diskFull}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testSequence("x"))
	if !errors.Is(err, diskFull) {
		t.Fatalf("err = %v, want wrapped disk full", err)
	}
	if len(healthy.seqs) != 1 {
		t.Fatalf("healthy output got %d sequences, want 1", len(healthy.seqs))
	}
	if len(failing.seqs) != 1 {
		t.Fatalf("failing output got %d sequences, want 1", len(failing.seqs))
	}
}

func TestCloseCallsAllOutputs(t *testing.T) {
	a, b := &mockOutput{}, &mockOutput{}
	m := New(a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Errorf("Close not called on all outputs: a=%v b=%v", a.closed, b.closed)
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	errA, errB := errors.New("err-a"), errors.New("err-b")
	a := &mockOutput{err: errA}
	b := &mockOutput{err: errB}
	m := New(a, b)

	err := m.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("err = %v, want both errors joined", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestEmptyMulti(t *testing.T) {
	m := New()
	if err := m.Write(context.Background(), testSequence("x")); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}

// abortingOutput is a mockOutput that can also discard.
type abortingOutput struct {
	mockOutput
	aborted bool
}

func (a *abortingOutput) Abort() error {
	a.aborted = true
	return nil
}

func TestAbortPrefersAbortOverClose(t *testing.T) {
	discarding := &abortingOutput{}
	streaming := &mockOutput{}
	m := New(discarding, streaming)

	if err := output.Abort(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !discarding.aborted || discarding.closed {
		t.Errorf("aborting output: aborted=%v closed=%v, want aborted only", discarding.aborted, discarding.closed)
	}
	if !streaming.closed {
		t.Error("output without Abort should be closed")
	}
}
