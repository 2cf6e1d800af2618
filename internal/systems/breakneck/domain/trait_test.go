package domain

import "testing"

func TestTraitTransactionValidation(t *testing.T) {
	tests := []struct {
		name       string
		tx         TraitTransaction
		wantReason string
	}{
		{"existing", TraitTransaction{Mode: TraitModeExisting, TraitID: "trait-1"}, ""},
		{"existing without id", TraitTransaction{Mode: TraitModeExisting}, ReasonTraitTargetRequired},
		{"new", TraitTransaction{Mode: TraitModeNew, Name: "Old Favor"}, ""},
		{"new without name", TraitTransaction{Mode: TraitModeNew}, ReasonTraitNameRequired},
		{
			"consolidate",
			TraitTransaction{Mode: TraitModeConsolidate, Name: "Hardened", ConsolidateIDs: []string{"a", "b", "c"}},
			"",
		},
		{
			"consolidate wrong count",
			TraitTransaction{Mode: TraitModeConsolidate, Name: "Hardened", ConsolidateIDs: []string{"a", "b"}},
			ReasonTraitConsolidateCount,
		},
		{
			"consolidate without name",
			TraitTransaction{Mode: TraitModeConsolidate, ConsolidateIDs: []string{"a", "b", "c"}},
			ReasonTraitNameRequired,
		},
		{
			"consolidate repeated id",
			TraitTransaction{Mode: TraitModeConsolidate, Name: "Hardened", ConsolidateIDs: []string{"a", "a", "a"}},
			ReasonTraitConsolidateDupes,
		},
		{
			"consolidate one duplicate",
			TraitTransaction{Mode: TraitModeConsolidate, Name: "Hardened", ConsolidateIDs: []string{"a", "b", "a"}},
			ReasonTraitConsolidateDupes,
		},
		{"unknown mode", TraitTransaction{Mode: "weird"}, ReasonTraitTransactionInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			validation := tc.tx.Validate()
			if tc.wantReason == "" {
				if !validation.Valid {
					t.Fatalf("expected valid, got reason %q", validation.Reason)
				}
				return
			}
			if validation.Valid || validation.Reason != tc.wantReason {
				t.Fatalf("validation = %+v, want reason %q", validation, tc.wantReason)
			}
		})
	}
}

func TestTraitTransactionCreatedCategory(t *testing.T) {
	if got := (TraitTransaction{Mode: TraitModeNew}).CreatedCategory(); got != TraitCategoryFlashback {
		t.Fatalf("new creates %s, want flashback", got)
	}
	if got := (TraitTransaction{Mode: TraitModeConsolidate}).CreatedCategory(); got != TraitCategoryGrouped {
		t.Fatalf("consolidate creates %s, want grouped", got)
	}
	if got := (TraitTransaction{Mode: TraitModeExisting}).CreatedCategory(); got != "" {
		t.Fatalf("existing creates %s, want none", got)
	}
}

func TestEffectivePositionIsEphemeral(t *testing.T) {
	base := PositionRisky
	if got := EffectivePosition(base, true); got != PositionControlled {
		t.Fatalf("effective = %s, want controlled", got)
	}
	if got := EffectivePosition(base, false); got != PositionRisky {
		t.Fatalf("effective = %s, want risky", got)
	}
	// The base value itself never moves.
	if base != PositionRisky {
		t.Fatalf("base mutated to %s", base)
	}
}
