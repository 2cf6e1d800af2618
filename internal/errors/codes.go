package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Crew errors
	CodeCrewRequired             Code = "CREW_REQUIRED"
	CodeCrewEmptyID              Code = "CREW_EMPTY_ID"
	CodeCrewInsufficientMomentum Code = "CREW_INSUFFICIENT_MOMENTUM"
	CodeCrewRallyUnavailable     Code = "CREW_RALLY_UNAVAILABLE"

	// Character errors
	CodeCharacterEmptyID       Code = "CHARACTER_EMPTY_ID"
	CodeCharacterNotFound      Code = "CHARACTER_NOT_FOUND"
	CodeCharacterInvalidRating Code = "CHARACTER_INVALID_APPROACH_RATING"
	CodeCharacterEmptyName     Code = "CHARACTER_EMPTY_NAME"

	// Trait errors
	CodeTraitNotFound        Code = "TRAIT_NOT_FOUND"
	CodeTraitAlreadyDisabled Code = "TRAIT_ALREADY_DISABLED"
	CodeTraitAlreadyEnabled  Code = "TRAIT_ALREADY_ENABLED"
	CodeTraitInvalidCategory Code = "TRAIT_INVALID_CATEGORY"

	// Clock errors
	CodeClockNotFound       Code = "CLOCK_NOT_FOUND"
	CodeClockInvalidMax     Code = "CLOCK_INVALID_MAX_SEGMENTS"
	CodeClockInvalidType    Code = "CLOCK_INVALID_TYPE"
	CodeClockEmptyOwner     Code = "CLOCK_EMPTY_OWNER"
	CodeClockInvalidSegment Code = "CLOCK_INVALID_SEGMENT_AMOUNT"

	// Turn state machine errors
	CodeTurnNotFound          Code = "TURN_NOT_FOUND"
	CodeTurnAlreadyActive     Code = "TURN_ALREADY_ACTIVE"
	CodeTurnInvalidTransition Code = "TURN_INVALID_TRANSITION"
	CodeTurnInvalidState      Code = "TURN_INVALID_STATE"

	// Consequence errors
	CodeConsequenceIncomplete      Code = "CONSEQUENCE_INCOMPLETE"
	CodeConsequenceInvalidType     Code = "CONSEQUENCE_INVALID_TYPE"
	CodeConsequenceDefenseBlocked  Code = "CONSEQUENCE_DEFENSE_UNAVAILABLE"
	CodeConsequenceMissingOutcome  Code = "CONSEQUENCE_MISSING_OUTCOME"
	CodeConsequenceAlreadyResolved Code = "CONSEQUENCE_ALREADY_RESOLVED"

	// Stims errors
	CodeStimsAlreadyUsed Code = "STIMS_ALREADY_USED"
	CodeStimsLocked      Code = "STIMS_LOCKED"
	CodeStimsNoCrew      Code = "STIMS_NO_CREW"

	// Dice errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
	CodeDiceInvalidPool Code = "DICE_INVALID_POOL"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCrewEmptyID,
		CodeCharacterEmptyID,
		CodeCharacterInvalidRating,
		CodeCharacterEmptyName,
		CodeTraitInvalidCategory,
		CodeClockInvalidMax,
		CodeClockInvalidType,
		CodeClockEmptyOwner,
		CodeClockInvalidSegment,
		CodeConsequenceIncomplete,
		CodeConsequenceInvalidType,
		CodeConsequenceMissingOutcome,
		CodeDiceMissing,
		CodeDiceInvalidSpec,
		CodeDiceInvalidPool,
		CodeSeedOutOfRange:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCrewRequired,
		CodeCrewInsufficientMomentum,
		CodeCrewRallyUnavailable,
		CodeTraitAlreadyDisabled,
		CodeTraitAlreadyEnabled,
		CodeTurnAlreadyActive,
		CodeTurnInvalidTransition,
		CodeTurnInvalidState,
		CodeConsequenceDefenseBlocked,
		CodeConsequenceAlreadyResolved,
		CodeStimsAlreadyUsed,
		CodeStimsLocked,
		CodeStimsNoCrew:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeCharacterNotFound,
		CodeTraitNotFound,
		CodeClockNotFound,
		CodeTurnNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
