package testfixtures

import (
	"slices"
	"testing"
)

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("task")

	first := gen.Next()
	second := gen.NextFunc()()

	if first != "task-001" || second != "task-002" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if got := gen.Issued(); !slices.Equal(got, []string{"task-001", "task-002"}) {
		t.Fatalf("unexpected issued identifiers %v", got)
	}
}

func TestNilIDGeneratorYieldsEmptyIDs(t *testing.T) {
	var gen *IDGenerator
	if id := gen.NextFunc()(); id != "" {
		t.Fatalf("expected empty id from nil generator, got %q", id)
	}
}
