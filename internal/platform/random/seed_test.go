package random

import "testing"

func TestNewSeedVaries(t *testing.T) {
	first, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	second, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	// Two crypto seeds colliding is astronomically unlikely; a collision
	// here means the source is broken.
	if first == second {
		t.Fatalf("expected distinct seeds, got %d twice", first)
	}
}
