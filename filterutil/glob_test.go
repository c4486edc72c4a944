// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package filterutil

import (
	"context"
	"io"
	"testing"

	"github.com/nunnzip/tokzip/internal/zipengine"
)

func noopHandler(ctx context.Context, r io.Reader) error { return nil }

func TestAllAlwaysExtracts(t *testing.T) {
	f := All(noopHandler)
	result, err := f(context.Background(), &zipengine.Entry{Name: "anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Handler == nil {
		t.Fatal("All() must always set a handler")
	}
}

func TestGlobMatchesPattern(t *testing.T) {
	f := Glob(noopHandler, "**/*.txt")

	tests := []struct {
		name string
		want bool
	}{
		{"docs/readme.txt", true},
		{"docs/sub/notes.txt", true},
		{"image.png", false},
	}

	matches := 0
	for _, tc := range tests {
		result, err := f(context.Background(), &zipengine.Entry{Name: tc.name})
		if err != nil {
			t.Fatalf("Glob filter for %q: unexpected error: %v", tc.name, err)
		}
		got := result.Handler != nil
		if got != tc.want {
			t.Errorf("Glob filter for %q: handler-set=%v, want %v", tc.name, got, tc.want)
		}
		if got {
			matches++
		}
	}

	if matches != 2 {
		t.Fatalf("expected 2 matches, got %d", matches)
	}
}

func TestNoneNeverExtracts(t *testing.T) {
	f := None()
	result, err := f(context.Background(), &zipengine.Entry{Name: "anything.bin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Handler != nil {
		t.Fatal("None() must never set a handler")
	}
}

func TestStopAfterStopsOnceQuotaReached(t *testing.T) {
	f := StopAfter(All(noopHandler), 2)

	var stopped []bool
	for i := 0; i < 3; i++ {
		result, err := f(context.Background(), &zipengine.Entry{Name: "e"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stopped = append(stopped, result.Stop)
	}

	if stopped[0] || !stopped[1] || !stopped[2] {
		// Stop becomes true once the 2nd handled entry is dispatched,
		// and stays true (the quota stays exhausted) afterward.
		t.Fatalf("unexpected stop sequence: %v", stopped)
	}
}
