// Package domain holds the pure combat rules: turn ordering, round
// boundaries, and input validation. It performs no I/O.
package domain

import (
	"sort"
	"strings"

	apperrors "github.com/louisbranch/torchlight/internal/platform/errors"
	"github.com/louisbranch/torchlight/internal/storage"
)

var (
	// ErrEmptyChapterID indicates a missing chapter ID.
	ErrEmptyChapterID = apperrors.New(apperrors.CodeCombatEmptyChapterID, "chapter id is required")
	// ErrEmptyCombatID indicates a missing combat ID.
	ErrEmptyCombatID = apperrors.New(apperrors.CodeCombatEmptyCombatID, "combat id is required")
	// ErrEmptyParticipantName indicates an enrollment without a display name.
	ErrEmptyParticipantName = apperrors.New(apperrors.CodeParticipantEmptyName, "participant name is required")
	// ErrEmptyParticipantID indicates a missing participant ID.
	ErrEmptyParticipantID = apperrors.New(apperrors.CodeParticipantEmptyID, "participant id is required")
	// ErrInvalidEntityType indicates an unknown roster reference type.
	ErrInvalidEntityType = apperrors.New(apperrors.CodeParticipantInvalidEntity, "entity type must be player or opponent")
	// ErrEmptyEffectName indicates an effect without a name.
	ErrEmptyEffectName = apperrors.New(apperrors.CodeEffectEmptyName, "effect name is required")
	// ErrEmptyEffectID indicates a missing effect ID.
	ErrEmptyEffectID = apperrors.New(apperrors.CodeEffectEmptyID, "effect id is required")
	// ErrInvalidEffectDuration indicates a non-positive effect duration.
	ErrInvalidEffectDuration = apperrors.New(apperrors.CodeEffectInvalidDuration, "effect duration must be at least 1 round")
)

// FullCombatState is the assembled snapshot of one combat session.
// Participants are in turn order; effects cover the whole session.
type FullCombatState struct {
	Session      storage.CombatSessionRecord
	Participants []storage.ParticipantRecord
	Effects      []storage.EffectRecord
}

// ParticipantSeed describes a combatant enrolled when combat starts.
type ParticipantSeed struct {
	Name       string
	Initiative int
	EntityID   string
	EntityType storage.EntityType
}

// ValidateSeed checks one enrollment seed.
func ValidateSeed(seed ParticipantSeed) error {
	if strings.TrimSpace(seed.Name) == "" {
		return ErrEmptyParticipantName
	}
	return ValidateEntityRef(seed.EntityID, seed.EntityType)
}

// ValidateEntityRef checks an optional roster back-reference. An entity type
// without an entity id (or the reverse) is rejected.
func ValidateEntityRef(entityID string, entityType storage.EntityType) error {
	hasID := strings.TrimSpace(entityID) != ""
	switch entityType {
	case "":
		if hasID {
			return ErrInvalidEntityType
		}
	case storage.EntityTypePlayer, storage.EntityTypeOpponent:
		if !hasID {
			return ErrInvalidEntityType
		}
	default:
		return ErrInvalidEntityType
	}
	return nil
}

// OrderParticipants sorts participants into turn order: initiative
// descending, enrollment sequence ascending. The sort is stable so repeated
// reads cannot disagree on tie order.
func OrderParticipants(participants []storage.ParticipantRecord) {
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Initiative != participants[j].Initiative {
			return participants[i].Initiative > participants[j].Initiative
		}
		return participants[i].Seq < participants[j].Seq
	})
}

// NextTurn computes the participant acting after activeID, given
// participants already in turn order. The second result reports a round
// boundary: the turn wrapped from the last participant back to the first.
//
// When activeID is absent from the list (for example the active participant
// was removed mid-round), the turn falls to the first participant without
// crossing a round boundary.
func NextTurn(participants []storage.ParticipantRecord, activeID string) (string, bool) {
	if len(participants) == 0 {
		return "", false
	}

	current := -1
	for i, p := range participants {
		if p.ID == activeID {
			current = i
			break
		}
	}

	next := current + 1
	if next >= len(participants) {
		return participants[0].ID, true
	}
	return participants[next].ID, false
}
