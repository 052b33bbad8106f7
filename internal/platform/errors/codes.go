package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Combat session errors
	CodeCombatEmptyChapterID Code = "COMBAT_EMPTY_CHAPTER_ID"
	CodeCombatEmptyCombatID  Code = "COMBAT_EMPTY_COMBAT_ID"
	CodeCombatFinished       Code = "COMBAT_FINISHED"
	CodeCombatActiveExists   Code = "COMBAT_ACTIVE_EXISTS"

	// Participant errors
	CodeParticipantEmptyName     Code = "PARTICIPANT_EMPTY_NAME"
	CodeParticipantEmptyID       Code = "PARTICIPANT_EMPTY_ID"
	CodeParticipantInvalidEntity Code = "PARTICIPANT_INVALID_ENTITY_TYPE"
	CodeParticipantWrongCombat   Code = "PARTICIPANT_WRONG_COMBAT"

	// Effect errors
	CodeEffectEmptyName       Code = "EFFECT_EMPTY_NAME"
	CodeEffectEmptyID         Code = "EFFECT_EMPTY_ID"
	CodeEffectInvalidDuration Code = "EFFECT_INVALID_DURATION"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeStorage  Code = "STORAGE_FAILURE"
)
