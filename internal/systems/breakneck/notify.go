package breakneck

import (
	"fmt"

	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// NoteKindChat marks notes intended for host-side chat display. The text
// is descriptive, not localized; rendering is the host's problem.
const NoteKindChat = "chat"

func chatNote(format string, args ...any) command.Note {
	return command.Note{Kind: NoteKindChat, Text: fmt.Sprintf(format, args...)}
}

func characterName(state *State, characterID string) string {
	if character, ok := state.Characters[characterID]; ok && character.Name != "" {
		return character.Name
	}
	return characterID
}

func noteCrewCreated(name string) command.Note {
	return chatNote("crew %q assembled with %d momentum", name, domain.MomentumStart)
}

func noteTurnStarted(state *State, characterID string, position domain.Position, effect domain.Effect) command.Note {
	return chatNote("%s acts (%s position, %s effect)", characterName(state, characterID), position, effect)
}

func noteRoll(state *State, characterID string, roll domain.ActionRollResult) command.Note {
	return chatNote("%s rolls %d dice: %v (%s)", characterName(state, characterID), roll.Pool, roll.Results, roll.Outcome)
}

func noteConsequence(state *State, characterID string, segments, momentumGain int, defensive bool) command.Note {
	name := characterName(state, characterID)
	if defensive {
		if segments == 0 {
			return chatNote("%s trades effect to shrug off the consequence entirely (+%d momentum)", name, momentumGain)
		}
		return chatNote("%s trades effect for a softer consequence: %d segment(s), +%d momentum", name, segments, momentumGain)
	}
	return chatNote("%s takes the consequence: %d segment(s), +%d momentum", name, segments, momentumGain)
}

func noteStimsLocked(state *State, characterID string) command.Note {
	return chatNote("%s's addiction clock fills: addicted, stims locked for the crew", characterName(state, characterID))
}

func noteStimsReroll(state *State, characterID string, die int) command.Note {
	return chatNote("%s burns stims (addiction +%d) and rerolls", characterName(state, characterID), die)
}
