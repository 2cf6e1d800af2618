package domain

import (
	"time"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

// TraitCategory classifies where a trait came from.
type TraitCategory string

// Trait categories.
const (
	TraitCategoryRole       TraitCategory = "role"
	TraitCategoryBackground TraitCategory = "background"
	TraitCategoryScar       TraitCategory = "scar"
	TraitCategoryFlashback  TraitCategory = "flashback"
	TraitCategoryGrouped    TraitCategory = "grouped"
)

// AddictTraitName is the scar granted when an addiction clock fills.
const AddictTraitName = "Addict"

// ConsolidateTraitCount is the exact number of traits a consolidation
// removes in exchange for one grouped trait.
const ConsolidateTraitCount = 3

// IsValid reports whether the trait category is known.
func (c TraitCategory) IsValid() bool {
	switch c {
	case TraitCategoryRole, TraitCategoryBackground, TraitCategoryScar, TraitCategoryFlashback, TraitCategoryGrouped:
		return true
	}
	return false
}

// Trait is a named character quality. Disabled traits stay on the sheet
// until a rally or consolidation brings them back or folds them away.
type Trait struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Category   TraitCategory `json:"category"`
	Disabled   bool          `json:"disabled,omitempty"`
	AcquiredAt time.Time     `json:"acquired_at"`
}

var (
	// ErrTraitNotFound indicates a referenced trait does not exist.
	ErrTraitNotFound = apperrors.New(apperrors.CodeTraitNotFound, "trait not found")
	// ErrTraitAlreadyDisabled indicates a disable on a disabled trait.
	ErrTraitAlreadyDisabled = apperrors.New(apperrors.CodeTraitAlreadyDisabled, "trait already disabled")
	// ErrTraitAlreadyEnabled indicates an enable on an enabled trait.
	ErrTraitAlreadyEnabled = apperrors.New(apperrors.CodeTraitAlreadyEnabled, "trait already enabled")
)

// TraitTransactionMode selects how a trait participates in a turn.
type TraitTransactionMode string

// Trait transaction modes.
const (
	// TraitModeExisting uses an already-owned trait without mutation.
	TraitModeExisting TraitTransactionMode = "existing"
	// TraitModeNew creates one flashback trait.
	TraitModeNew TraitTransactionMode = "new"
	// TraitModeConsolidate folds exactly three traits into one grouped
	// trait.
	TraitModeConsolidate TraitTransactionMode = "consolidate"
)

// IsValid reports whether the mode is known.
func (m TraitTransactionMode) IsValid() bool {
	switch m {
	case TraitModeExisting, TraitModeNew, TraitModeConsolidate:
		return true
	}
	return false
}

// TraitTransaction describes a trait use within a turn. The position
// improvement it signals is ephemeral: it applies to the current roll only
// and is never written back into the character's stored base position.
type TraitTransaction struct {
	Mode TraitTransactionMode `json:"mode"`
	// TraitID names the trait used in existing mode.
	TraitID string `json:"trait_id,omitempty"`
	// Name names the trait created in new and consolidate modes.
	Name string `json:"name,omitempty"`
	// ConsolidateIDs are the traits removed in consolidate mode.
	ConsolidateIDs []string `json:"consolidate_ids,omitempty"`
}

// Validate checks the transaction carries the fields its mode requires.
func (t TraitTransaction) Validate() Validation {
	switch t.Mode {
	case TraitModeExisting:
		if t.TraitID == "" {
			return Invalid(ReasonTraitTargetRequired)
		}
	case TraitModeNew:
		if t.Name == "" {
			return Invalid(ReasonTraitNameRequired)
		}
	case TraitModeConsolidate:
		if t.Name == "" {
			return Invalid(ReasonTraitNameRequired)
		}
		if len(t.ConsolidateIDs) != ConsolidateTraitCount {
			return Invalid(ReasonTraitConsolidateCount)
		}
		seen := make(map[string]bool, len(t.ConsolidateIDs))
		for _, traitID := range t.ConsolidateIDs {
			if seen[traitID] {
				return Invalid(ReasonTraitConsolidateDupes)
			}
			seen[traitID] = true
		}
	default:
		return Invalid(ReasonTraitTransactionInvalid)
	}
	return ValidationOK()
}

// CreatedCategory returns the category of the trait the transaction
// creates, or empty for existing mode.
func (t TraitTransaction) CreatedCategory() TraitCategory {
	switch t.Mode {
	case TraitModeNew:
		return TraitCategoryFlashback
	case TraitModeConsolidate:
		return TraitCategoryGrouped
	}
	return ""
}

// EffectivePosition derives the position a roll is made at. An active
// trait transaction improves the base position by exactly one step for
// this roll only; the base position itself never changes.
func EffectivePosition(base Position, traitTransactionActive bool) Position {
	if traitTransactionActive {
		return ImprovePosition(base)
	}
	return base
}
