// Package storage defines the persisted record types and store interfaces
// shared by the torchlight services.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a requested state transition is invalid.
var ErrConflict = errors.New("record conflict")

// DatabaseError reports a statement that still failed after the gateway
// exhausted its busy-retry budget. The last underlying failure is wrapped.
type DatabaseError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the last underlying failure.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// EntityType identifies the roster record a participant or token points at.
type EntityType string

const (
	// EntityTypePlayer marks a reference to a player record.
	EntityTypePlayer EntityType = "player"
	// EntityTypeOpponent marks a reference to an opponent record.
	EntityTypeOpponent EntityType = "opponent"
)

// ChapterRecord stores one adventure chapter.
type ChapterRecord struct {
	ID          string
	Name        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PartyRecord stores one adventuring party.
type PartyRecord struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlayerRecord stores one player character.
type PlayerRecord struct {
	ID         string
	PartyID    string
	Name       string
	Level      int
	MaxHP      int
	ArmorClass int
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OpponentRecord stores one opponent stat block.
type OpponentRecord struct {
	ID         string
	Name       string
	Level      int
	MaxHP      int
	ArmorClass int
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EncounterRecord stores one authored encounter within a chapter.
type EncounterRecord struct {
	ID          string
	ChapterID   string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TokenRecord stores one canvas token placement within an encounter.
type TokenRecord struct {
	ID          string
	EncounterID string
	EntityID    string
	EntityType  EntityType
	X           int
	Y           int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PartyDetail is a denormalized party view with its player roster.
type PartyDetail struct {
	Party   PartyRecord
	Players []PlayerRecord
}

// EncounterDetail is a denormalized encounter view with its token placements.
type EncounterDetail struct {
	Encounter EncounterRecord
	Tokens    []TokenRecord
}

// CombatStatus describes the lifecycle state of a combat session row.
type CombatStatus string

const (
	// CombatStatusRunning indicates the combat is in progress.
	CombatStatusRunning CombatStatus = "running"
	// CombatStatusFinished indicates the combat has ended. Finished rows are
	// retained for history and are never mutated again.
	CombatStatusFinished CombatStatus = "finished"
)

// CombatSessionRecord stores one combat encounter's lifetime row.
//
// ActiveParticipantID is empty only when the session has zero participants;
// the empty string is persisted as NULL.
type CombatSessionRecord struct {
	ID                  string
	ChapterID           string
	Round               int
	ActiveParticipantID string
	Status              CombatStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ParticipantRecord stores one combatant enrolled in a session.
//
// EntityID/EntityType weakly reference a player or opponent record and are
// persisted as NULL when empty. Seq is the enrollment order used to break
// initiative ties deterministically; the store assigns it on insert.
type ParticipantRecord struct {
	ID         string
	CombatID   string
	EntityID   string
	EntityType EntityType
	Name       string
	Initiative int
	Seq        int
	CreatedAt  time.Time
}

// EffectRecord stores one time-bound modifier attached to a participant.
//
// Duration counts remaining rounds and decays at round boundaries;
// TotalDuration keeps the original value for display and never changes.
type EffectRecord struct {
	ID            string
	CombatID      string
	ParticipantID string
	Name          string
	Description   string
	Duration      int
	TotalDuration int
	CreatedAt     time.Time
}

// ChapterStore persists adventure chapters.
type ChapterStore interface {
	PutChapter(ctx context.Context, record ChapterRecord) error
	GetChapter(ctx context.Context, chapterID string) (ChapterRecord, error)
	ListChapters(ctx context.Context) ([]ChapterRecord, error)
	DeleteChapter(ctx context.Context, chapterID string) error
}

// PartyStore persists parties and their denormalized detail view.
type PartyStore interface {
	PutParty(ctx context.Context, record PartyRecord) error
	GetParty(ctx context.Context, partyID string) (PartyRecord, error)
	GetPartyDetail(ctx context.Context, partyID string) (PartyDetail, error)
	ListParties(ctx context.Context) ([]PartyRecord, error)
	DeleteParty(ctx context.Context, partyID string) error
}

// PlayerStore persists player characters.
type PlayerStore interface {
	PutPlayer(ctx context.Context, record PlayerRecord) error
	GetPlayer(ctx context.Context, playerID string) (PlayerRecord, error)
	ListPlayersByParty(ctx context.Context, partyID string) ([]PlayerRecord, error)
	DeletePlayer(ctx context.Context, playerID string) error
}

// OpponentStore persists opponent stat blocks.
type OpponentStore interface {
	PutOpponent(ctx context.Context, record OpponentRecord) error
	GetOpponent(ctx context.Context, opponentID string) (OpponentRecord, error)
	ListOpponents(ctx context.Context) ([]OpponentRecord, error)
	DeleteOpponent(ctx context.Context, opponentID string) error
}

// EncounterStore persists encounters and their denormalized detail view.
type EncounterStore interface {
	PutEncounter(ctx context.Context, record EncounterRecord) error
	GetEncounter(ctx context.Context, encounterID string) (EncounterRecord, error)
	GetEncounterDetail(ctx context.Context, encounterID string) (EncounterDetail, error)
	ListEncountersByChapter(ctx context.Context, chapterID string) ([]EncounterRecord, error)
	DeleteEncounter(ctx context.Context, encounterID string) error
}

// TokenStore persists canvas token placements.
type TokenStore interface {
	PutToken(ctx context.Context, record TokenRecord) error
	GetToken(ctx context.Context, tokenID string) (TokenRecord, error)
	ListTokensByEncounter(ctx context.Context, encounterID string) ([]TokenRecord, error)
	MoveToken(ctx context.Context, tokenID string, x, y int) error
	DeleteToken(ctx context.Context, tokenID string) error
}

// CombatStore persists combat sessions, participants, and effects.
//
// Single-statement operations are retried by the gateway on transient busy
// failures. Multi-statement sequences run through CombatTx and are never
// auto-retried; the caller owns rollback-and-retry decisions.
type CombatStore interface {
	BeginCombat(ctx context.Context) (CombatTx, error)

	GetCombatSession(ctx context.Context, combatID string) (CombatSessionRecord, error)
	GetActiveCombatSession(ctx context.Context, chapterID string) (CombatSessionRecord, error)
	ListParticipants(ctx context.Context, combatID string) ([]ParticipantRecord, error)
	GetParticipant(ctx context.Context, participantID string) (ParticipantRecord, error)
	ListEffects(ctx context.Context, combatID string) ([]EffectRecord, error)
	GetEffect(ctx context.Context, effectID string) (EffectRecord, error)

	InsertParticipant(ctx context.Context, record ParticipantRecord) error
	DeleteParticipant(ctx context.Context, participantID string) error
	UpdateParticipantInitiative(ctx context.Context, participantID string, initiative int) error
	PutEffect(ctx context.Context, record EffectRecord) error
	DeleteEffect(ctx context.Context, effectID string) error
	FinishCombatSession(ctx context.Context, combatID string) error
}

// CombatTx is an explicit combat transaction. Statements issued through it
// are strictly ordered and become visible atomically on Commit.
type CombatTx interface {
	InsertCombatSession(ctx context.Context, record CombatSessionRecord) error
	InsertParticipant(ctx context.Context, record ParticipantRecord) error
	GetCombatSession(ctx context.Context, combatID string) (CombatSessionRecord, error)
	ListParticipants(ctx context.Context, combatID string) ([]ParticipantRecord, error)
	SetTurn(ctx context.Context, combatID string, round int, activeParticipantID string) error
	DecayEffects(ctx context.Context, combatID string) error
	DeleteExpiredEffects(ctx context.Context, combatID string) error

	Commit() error
	Rollback() error
}
