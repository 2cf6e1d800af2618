package domain

import (
	"errors"
	"testing"
)

func TestNewClockDefaults(t *testing.T) {
	harm, err := NewClock("clock-1", "char-1", ClockTypeHarm, "physical", 0)
	if err != nil {
		t.Fatalf("new harm clock: %v", err)
	}
	if harm.MaxSegments != 6 || harm.Segments != 0 {
		t.Fatalf("harm clock = %+v", harm)
	}

	addiction, err := NewClock("clock-2", "char-1", ClockTypeAddiction, "", 0)
	if err != nil {
		t.Fatalf("new addiction clock: %v", err)
	}
	if addiction.MaxSegments != 8 {
		t.Fatalf("addiction max = %d, want 8", addiction.MaxSegments)
	}

	progress, err := NewClock("clock-3", "crew-1", ClockTypeProgress, "heist", 4)
	if err != nil {
		t.Fatalf("new progress clock: %v", err)
	}
	if progress.MaxSegments != 4 {
		t.Fatalf("progress max = %d, want 4", progress.MaxSegments)
	}
}

func TestNewClockValidation(t *testing.T) {
	if _, err := NewClock("clock-1", "", ClockTypeHarm, "", 0); !errors.Is(err, ErrClockEmptyOwner) {
		t.Fatalf("expected ErrClockEmptyOwner, got %v", err)
	}
	if _, err := NewClock("clock-1", "char-1", "weird", "", 4); !errors.Is(err, ErrClockInvalidType) {
		t.Fatalf("expected ErrClockInvalidType, got %v", err)
	}
	// Progress clocks have no default size.
	if _, err := NewClock("clock-1", "crew-1", ClockTypeProgress, "", 0); !errors.Is(err, ErrClockInvalidMax) {
		t.Fatalf("expected ErrClockInvalidMax, got %v", err)
	}
}

func TestAddSegmentsClampsAndDiscardsOverflow(t *testing.T) {
	clock := Clock{ID: "clock-1", OwnerID: "char-1", Type: ClockTypeHarm, MaxSegments: 6}

	clock = clock.AddSegments(4)
	if clock.Segments != 4 {
		t.Fatalf("segments = %d, want 4", clock.Segments)
	}

	// Overflow is discarded, not carried over.
	clock = clock.AddSegments(100)
	if clock.Segments != 6 {
		t.Fatalf("segments = %d, want 6", clock.Segments)
	}
	if !clock.IsFull() {
		t.Fatal("clock should be full")
	}

	clock = clock.AddSegments(-10)
	if clock.Segments != 0 {
		t.Fatalf("segments = %d, want 0", clock.Segments)
	}
}

func TestSetAndClearSegments(t *testing.T) {
	clock := Clock{MaxSegments: 8}

	clock = clock.SetSegments(5)
	if clock.Segments != 5 || clock.IsFull() {
		t.Fatalf("clock = %+v", clock)
	}

	clock = clock.SetSegments(20)
	if clock.Segments != 8 || !clock.IsFull() {
		t.Fatalf("clock = %+v", clock)
	}

	clock = clock.ClearSegments()
	if clock.Segments != 0 {
		t.Fatalf("segments = %d, want 0", clock.Segments)
	}
}

func TestAddictionClockFillDetection(t *testing.T) {
	// Advancing from 5/8 past the cap fills the clock exactly.
	clock := Clock{Type: ClockTypeAddiction, MaxSegments: 8, Segments: 5}
	clock = clock.AddSegments(3)
	if !clock.IsFull() {
		t.Fatalf("clock = %+v, want full", clock)
	}
}
