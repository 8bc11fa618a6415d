//go:build linux

package cpu

import (
	"errors"
	"slices"
	"testing"
)

func TestPinToSet_RestrictsAndRestores(t *testing.T) {
	before, err := CurrentSet()
	if err != nil {
		t.Fatalf("CurrentSet failed: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected at least one allowed CPU")
	}

	target := before[:1]
	release, err := PinToSet(target)
	if err != nil {
		t.Fatalf("PinToSet(%v) failed: %v", target, err)
	}

	pinned, err := CurrentSet()
	if err != nil {
		release()
		t.Fatalf("CurrentSet failed: %v", err)
	}
	release()

	if !slices.Equal(pinned, target) {
		t.Errorf("expected thread pinned to %v, got %v", target, pinned)
	}
}

func TestPinToSet_EmptySet(t *testing.T) {
	if _, err := PinToSet(nil); !errors.Is(err, ErrEmptySet) {
		t.Errorf("expected ErrEmptySet, got %v", err)
	}
}

func TestPinToSet_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
	}{
		{"negative", []int{-1}},
		{"beyond mask", []int{0, maxCPUs}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PinToSet(tt.ids); err == nil {
				t.Errorf("expected error for ids %v", tt.ids)
			}
		})
	}
}

func TestGetNumCPU(t *testing.T) {
	if n := GetNumCPU(); n < 1 {
		t.Errorf("expected at least 1 CPU, got %d", n)
	}
}
