// Package dice provides generic, deterministic dice-rolling primitives.
//
// Randomness enters only through the Seed on a Request, so the same request
// always produces the same result. Higher layers record concrete results in
// events and never re-roll during replay.
package dice

import (
	"math/rand"
	"sort"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

var (
	// ErrMissingDice indicates a request with no dice specs.
	ErrMissingDice = apperrors.New(apperrors.CodeDiceMissing, "at least one dice spec is required")
	// ErrInvalidDiceSpec indicates a spec with non-positive sides or count.
	ErrInvalidDiceSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice spec sides and count must be positive")
)

// Spec describes a homogeneous group of dice to roll.
type Spec struct {
	// Sides is the number of faces per die.
	Sides int
	// Count is the number of dice to roll.
	Count int
}

// Request describes a full dice roll.
type Request struct {
	// Dice lists the dice groups to roll, processed in slice order.
	Dice []Spec
	// Seed initializes the RNG; equal seeds yield equal results.
	Seed int64
}

// Roll holds the results for a single spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result holds the results for a full request.
type Result struct {
	Rolls []Roll
	Total int
}

// RollDice rolls dice based on the provided request.
//
// RollDice is deterministic with respect to Request.Seed: given the same
// seed and the same dice slice, it always produces the same result. Roll
// entries in Result.Rolls appear in the same order as the corresponding
// specs in Request.Dice.
func RollDice(request Request) (Result, error) {
	if len(request.Dice) == 0 {
		return Result{}, ErrMissingDice
	}

	rng := rand.New(rand.NewSource(request.Seed))
	rolls := make([]Roll, 0, len(request.Dice))
	total := 0

	for _, spec := range request.Dice {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rollDie(rng, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}

// RollSorted rolls count dice with the provided sides and returns the
// results sorted descending. This is the shape pool-based outcome
// classification consumes: the highest die decides the outcome tier.
func RollSorted(seed int64, sides, count int) ([]int, error) {
	result, err := RollDice(Request{
		Dice: []Spec{{Sides: sides, Count: count}},
		Seed: seed,
	})
	if err != nil {
		return nil, err
	}
	values := append([]int(nil), result.Rolls[0].Results...)
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	return values, nil
}

// RollKeepLowest rolls two dice with the provided sides and keeps the
// lower one. Zero-pool rolls use this variant: the player rolls 2d6 and
// the single kept die is the worse of the two.
func RollKeepLowest(seed int64, sides int) (int, error) {
	result, err := RollDice(Request{
		Dice: []Spec{{Sides: sides, Count: 2}},
		Seed: seed,
	})
	if err != nil {
		return 0, err
	}
	a, b := result.Rolls[0].Results[0], result.Rolls[0].Results[1]
	if b < a {
		return b, nil
	}
	return a, nil
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}
