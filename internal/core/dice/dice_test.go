package dice

import (
	"errors"
	"testing"
)

func TestRollDiceDeterministic(t *testing.T) {
	req := Request{
		Dice: []Spec{{Sides: 6, Count: 4}},
		Seed: 42,
	}

	first, err := RollDice(req)
	if err != nil {
		t.Fatalf("roll dice: %v", err)
	}
	second, err := RollDice(req)
	if err != nil {
		t.Fatalf("roll dice: %v", err)
	}

	if len(first.Rolls) != 1 || len(second.Rolls) != 1 {
		t.Fatalf("expected 1 roll group each, got %d and %d", len(first.Rolls), len(second.Rolls))
	}
	for i := range first.Rolls[0].Results {
		if first.Rolls[0].Results[i] != second.Rolls[0].Results[i] {
			t.Fatalf("results differ at %d: %v vs %v", i, first.Rolls[0].Results, second.Rolls[0].Results)
		}
	}
	if first.Total != second.Total {
		t.Fatalf("totals differ: %d vs %d", first.Total, second.Total)
	}
}

func TestRollDiceBounds(t *testing.T) {
	result, err := RollDice(Request{
		Dice: []Spec{{Sides: 6, Count: 100}},
		Seed: 7,
	})
	if err != nil {
		t.Fatalf("roll dice: %v", err)
	}
	for _, value := range result.Rolls[0].Results {
		if value < 1 || value > 6 {
			t.Fatalf("die value %d out of range 1..6", value)
		}
	}
}

func TestRollDiceErrors(t *testing.T) {
	if _, err := RollDice(Request{Seed: 1}); !errors.Is(err, ErrMissingDice) {
		t.Fatalf("expected ErrMissingDice, got %v", err)
	}
	if _, err := RollDice(Request{Dice: []Spec{{Sides: 0, Count: 1}}, Seed: 1}); !errors.Is(err, ErrInvalidDiceSpec) {
		t.Fatalf("expected ErrInvalidDiceSpec, got %v", err)
	}
	if _, err := RollDice(Request{Dice: []Spec{{Sides: 6, Count: -1}}, Seed: 1}); !errors.Is(err, ErrInvalidDiceSpec) {
		t.Fatalf("expected ErrInvalidDiceSpec, got %v", err)
	}
}

func TestRollSortedDescending(t *testing.T) {
	values, err := RollSorted(99, 6, 8)
	if err != nil {
		t.Fatalf("roll sorted: %v", err)
	}
	if len(values) != 8 {
		t.Fatalf("expected 8 dice, got %d", len(values))
	}
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			t.Fatalf("results not sorted descending: %v", values)
		}
	}
}

func TestRollKeepLowest(t *testing.T) {
	// The kept die must equal the minimum of the underlying 2-die roll.
	result, err := RollDice(Request{Dice: []Spec{{Sides: 6, Count: 2}}, Seed: 11})
	if err != nil {
		t.Fatalf("roll dice: %v", err)
	}
	want := result.Rolls[0].Results[0]
	if result.Rolls[0].Results[1] < want {
		want = result.Rolls[0].Results[1]
	}

	kept, err := RollKeepLowest(11, 6)
	if err != nil {
		t.Fatalf("roll keep lowest: %v", err)
	}
	if kept != want {
		t.Fatalf("kept die = %d, want %d", kept, want)
	}
	if kept < 1 || kept > 6 {
		t.Fatalf("kept die %d out of range", kept)
	}
}
