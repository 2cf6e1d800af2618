package domain

import (
	"math"

	"github.com/harrowgate/momentum-engine/internal/core/dice"
)

// Outcome is the classified result of an action roll.
type Outcome string

// Outcome values.
const (
	OutcomeCritical Outcome = "critical"
	OutcomeSuccess  Outcome = "success"
	OutcomePartial  Outcome = "partial"
	OutcomeFailure  Outcome = "failure"
)

// IsValid reports whether the outcome is one of the four classifications.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeCritical, OutcomeSuccess, OutcomePartial, OutcomeFailure:
		return true
	}
	return false
}

// IsSuccess reports whether the outcome completes the action without a
// consequence.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeCritical || o == OutcomeSuccess
}

// ClassifyOutcome classifies a set of d6 results. Two or more sixes is a
// critical, exactly one six a success, a highest die of 4 or 5 a partial,
// and anything else a failure. An empty slice classifies as failure.
func ClassifyOutcome(results []int) Outcome {
	sixes := 0
	highest := 0
	for _, value := range results {
		if value == 6 {
			sixes++
		}
		if value > highest {
			highest = value
		}
	}
	switch {
	case sixes >= 2:
		return OutcomeCritical
	case sixes == 1:
		return OutcomeSuccess
	case highest >= 4:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

// ActionRollRequest describes a single action roll.
type ActionRollRequest struct {
	Pool int
	Seed int64
}

// ActionRollResult captures the dice rolled and the classified outcome.
type ActionRollResult struct {
	Pool int
	// Results are the rolled dice, sorted highest first. A zero-pool roll
	// records the single kept die.
	Results  []int
	ZeroPool bool
	Outcome  Outcome
}

// RollAction performs an action roll from the provided request. A pool of
// zero rolls two dice and keeps the lower one as the sole die.
// It uses the core dice package for deterministic rolling.
func RollAction(request ActionRollRequest) (ActionRollResult, error) {
	if request.Pool <= 0 {
		kept, err := dice.RollKeepLowest(request.Seed, 6)
		if err != nil {
			return ActionRollResult{}, err
		}
		results := []int{kept}
		return ActionRollResult{
			Pool:     0,
			Results:  results,
			ZeroPool: true,
			Outcome:  ClassifyOutcome(results),
		}, nil
	}

	results, err := dice.RollSorted(request.Seed, 6, request.Pool)
	if err != nil {
		return ActionRollResult{}, err
	}
	return ActionRollResult{
		Pool:    request.Pool,
		Results: results,
		Outcome: ClassifyOutcome(results),
	}, nil
}

// Probabilities holds the exact outcome distribution for a pool size.
type Probabilities struct {
	Critical float64
	Success  float64
	Partial  float64
	Failure  float64
}

// Zero-pool outcome constants for the 2d6-keep-lowest desperate roll.
// These are the established approximations rather than exact combinatorial
// values; the partial share absorbs the remainder so the distribution still
// sums to one.
const (
	zeroPoolSuccess = 0.0278
	zeroPoolFailure = 0.667
)

// OutcomeProbabilities computes the exact outcome distribution for a pool
// of n six-sided dice. Negative pools are treated as zero.
//
// For n >= 1:
//
//	P(failure)  = (1/2)^n            all dice show 1-3
//	P(partial)  = (5/6)^n - (1/2)^n  no six, at least one 4 or 5
//	P(success)  = n * (1/6) * (5/6)^(n-1)
//	P(critical) = 1 - (5/6)^n - P(success)
func OutcomeProbabilities(pool int) Probabilities {
	if pool <= 0 {
		return Probabilities{
			Critical: 0,
			Success:  zeroPoolSuccess,
			Partial:  1 - zeroPoolSuccess - zeroPoolFailure,
			Failure:  zeroPoolFailure,
		}
	}

	n := float64(pool)
	noSix := math.Pow(5.0/6.0, n)
	allLow := math.Pow(0.5, n)
	success := n * (1.0 / 6.0) * math.Pow(5.0/6.0, n-1)
	return Probabilities{
		Critical: 1 - noSix - success,
		Success:  success,
		Partial:  noSix - allLow,
		Failure:  allLow,
	}
}
