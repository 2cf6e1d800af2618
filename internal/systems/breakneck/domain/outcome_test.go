package domain

import (
	"math"
	"testing"
)

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name    string
		results []int
		want    Outcome
	}{
		{"two sixes", []int{6, 6, 2}, OutcomeCritical},
		{"three sixes", []int{6, 6, 6}, OutcomeCritical},
		{"one six", []int{6, 3, 1}, OutcomeSuccess},
		{"highest five", []int{5, 3, 2}, OutcomePartial},
		{"highest four", []int{4, 4, 1}, OutcomePartial},
		{"highest three", []int{3, 2, 1}, OutcomeFailure},
		{"all ones", []int{1, 1}, OutcomeFailure},
		{"single six", []int{6}, OutcomeSuccess},
		{"single low", []int{2}, OutcomeFailure},
		{"empty", nil, OutcomeFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyOutcome(tc.results); got != tc.want {
				t.Fatalf("classify(%v) = %s, want %s", tc.results, got, tc.want)
			}
		})
	}
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		name    string
		request PoolRequest
		want    int
	}{
		{"single approach", PoolRequest{ApproachRatings: []int{2}}, 2},
		{"synergy", PoolRequest{ApproachRatings: []int{2, 1}}, 3},
		{"equipment bonus", PoolRequest{ApproachRatings: []int{1}, EquipmentBonus: 2}, 3},
		{"pushed", PoolRequest{ApproachRatings: []int{1}, Pushed: true}, 2},
		{"flashback", PoolRequest{ApproachRatings: []int{1}, FlashbackTrait: true}, 2},
		{"everything", PoolRequest{ApproachRatings: []int{2, 2}, EquipmentBonus: 1, Pushed: true, FlashbackTrait: true}, 7},
		{"zero", PoolRequest{ApproachRatings: []int{0}}, 0},
		{"negative clamps", PoolRequest{ApproachRatings: []int{0}, EquipmentBonus: -2}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PoolSize(tc.request); got != tc.want {
				t.Fatalf("pool size = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRollActionDeterministic(t *testing.T) {
	first, err := RollAction(ActionRollRequest{Pool: 3, Seed: 42})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	second, err := RollAction(ActionRollRequest{Pool: 3, Seed: 42})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if len(first.Results) != 3 || first.Outcome != second.Outcome {
		t.Fatalf("rolls diverged: %+v vs %+v", first, second)
	}
	for i := range first.Results {
		if first.Results[i] != second.Results[i] {
			t.Fatalf("rolls diverged: %v vs %v", first.Results, second.Results)
		}
	}
	for i := 1; i < len(first.Results); i++ {
		if first.Results[i] > first.Results[i-1] {
			t.Fatalf("results not sorted: %v", first.Results)
		}
	}
}

func TestRollActionZeroPool(t *testing.T) {
	result, err := RollAction(ActionRollRequest{Pool: 0, Seed: 7})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !result.ZeroPool || len(result.Results) != 1 {
		t.Fatalf("zero-pool roll = %+v", result)
	}
	if result.Results[0] < 1 || result.Results[0] > 6 {
		t.Fatalf("kept die out of range: %d", result.Results[0])
	}
}

func TestOutcomeProbabilitiesSumToOne(t *testing.T) {
	for pool := 1; pool <= 12; pool++ {
		p := OutcomeProbabilities(pool)
		sum := p.Critical + p.Success + p.Partial + p.Failure
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("pool %d: probabilities sum to %f", pool, sum)
		}
		for name, value := range map[string]float64{
			"critical": p.Critical,
			"success":  p.Success,
			"partial":  p.Partial,
			"failure":  p.Failure,
		} {
			if value < 0 || value > 1 {
				t.Fatalf("pool %d: %s = %f out of range", pool, name, value)
			}
		}
	}
}

func TestOutcomeProbabilitiesThreeDice(t *testing.T) {
	p := OutcomeProbabilities(3)

	if got := math.Round(p.Success*1000) / 10; got != 34.7 {
		t.Fatalf("success = %.1f%%, want 34.7%%", got)
	}
	if got := math.Round(p.Critical*1000) / 10; got != 7.4 {
		t.Fatalf("critical = %.1f%%, want 7.4%%", got)
	}
	if got := math.Round((p.Partial+p.Failure)*1000) / 10; got != 57.9 {
		t.Fatalf("partial+failure = %.1f%%, want 57.9%%", got)
	}
	// Split derived from the formulas: (5/6)^3 - (1/2)^3 and (1/2)^3.
	if got := math.Round(p.Partial*10000) / 100; got != 45.37 {
		t.Fatalf("partial = %.2f%%, want 45.37%%", got)
	}
	if got := math.Round(p.Failure*10000) / 100; got != 12.5 {
		t.Fatalf("failure = %.2f%%, want 12.50%%", got)
	}
}

func TestOutcomeProbabilitiesZeroPool(t *testing.T) {
	p := OutcomeProbabilities(0)
	if p.Critical != 0 {
		t.Fatalf("critical = %f, want 0", p.Critical)
	}
	if math.Abs(p.Success-0.0278) > 1e-9 {
		t.Fatalf("success = %f", p.Success)
	}
	if math.Abs(p.Failure-0.667) > 1e-9 {
		t.Fatalf("failure = %f", p.Failure)
	}
	sum := p.Critical + p.Success + p.Partial + p.Failure
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %f", sum)
	}
}
