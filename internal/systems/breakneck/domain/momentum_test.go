package domain

import (
	"errors"
	"testing"
)

func TestAddMomentumClampsAtBounds(t *testing.T) {
	tests := []struct {
		name    string
		current int
		amount  int
		want    int
	}{
		{"normal gain", 5, 2, 7},
		{"overflow lost", 9, 6, 10},
		{"at cap", 10, 1, 10},
		{"negative amount", 5, -3, 2},
		{"underflow clamped", 1, -5, 0},
		{"huge amount", 0, 1000, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AddMomentum(tc.current, tc.amount); got != tc.want {
				t.Fatalf("add(%d, %d) = %d, want %d", tc.current, tc.amount, got, tc.want)
			}
		})
	}
}

func TestSpendMomentum(t *testing.T) {
	got, err := SpendMomentum(5, 3)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if got != 2 {
		t.Fatalf("momentum = %d, want 2", got)
	}

	got, err = SpendMomentum(2, 3)
	if !errors.Is(err, ErrInsufficientMomentum) {
		t.Fatalf("expected ErrInsufficientMomentum, got %v", err)
	}
	if got != 2 {
		t.Fatalf("failed spend changed momentum to %d", got)
	}
}

func TestMomentumGainMirrorsSeverity(t *testing.T) {
	positions := []Position{PositionControlled, PositionRisky, PositionDesperate, PositionImpossible}
	for _, p := range positions {
		if MomentumGain(p) != ConsequenceSeverity(p) {
			t.Fatalf("gain and severity diverge at %s", p)
		}
	}
	if MomentumGain(PositionRisky) != 2 {
		t.Fatalf("risky gain = %d, want 2", MomentumGain(PositionRisky))
	}
}

func TestCanRally(t *testing.T) {
	tests := []struct {
		name      string
		momentum  int
		available bool
		wantErr   bool
	}{
		{"at threshold", 3, true, false},
		{"at zero", 0, true, false},
		{"above threshold", 4, true, true},
		{"flag spent", 2, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CanRally(tc.momentum, tc.available)
			if tc.wantErr {
				if !errors.Is(err, ErrRallyUnavailable) {
					t.Fatalf("expected ErrRallyUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("rally: %v", err)
			}
		})
	}
}
