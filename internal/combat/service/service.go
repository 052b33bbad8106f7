// Package service implements the combat session engine: combat creation,
// turn and round advancement, effect decay, and participant enrollment.
//
// Every multi-statement operation runs inside one storage transaction and is
// all-or-nothing; a failed advance leaves the persisted session exactly as it
// was. Mutations that read-then-write additionally serialize through a
// per-combat lock so concurrent calls cannot interleave their transitions.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/torchlight/internal/combat/domain"
	apperrors "github.com/louisbranch/torchlight/internal/platform/errors"
	"github.com/louisbranch/torchlight/internal/platform/id"
	"github.com/louisbranch/torchlight/internal/storage"
)

var tracer = otel.Tracer("github.com/louisbranch/torchlight/internal/combat/service")

// ErrCombatFinished indicates a mutation against a finished session.
var ErrCombatFinished = apperrors.New(apperrors.CodeCombatFinished, "combat session is finished")

// Service is the combat session engine.
type Service struct {
	store       storage.CombatStore
	clock       func() time.Time
	idGenerator func() (string, error)
	locks       lockTable
}

// New creates a combat engine with default clock and id generation.
func New(store storage.CombatStore) *Service {
	return &Service{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// StartCombatInput describes a combat to create.
type StartCombatInput struct {
	ChapterID    string
	Participants []domain.ParticipantSeed
}

// AddParticipantInput describes a combatant joining mid-combat.
type AddParticipantInput struct {
	CombatID   string
	Name       string
	Initiative int
	EntityID   string
	EntityType storage.EntityType
}

// AddEffectInput describes a timed effect to attach to a participant.
type AddEffectInput struct {
	CombatID      string
	ParticipantID string
	Name          string
	Description   string
	Duration      int
}

// StartCombat creates a combat session for a chapter with the given seed
// participants and returns the new combat ID.
//
// The session row, every seed participant, and the initial active
// participant are committed in one transaction: a partially seeded combat is
// never observable. Start is not retried on failure; callers retry the whole
// operation. The caller is responsible for not starting a second combat in a
// chapter that already has a running one.
func (s *Service) StartCombat(ctx context.Context, input StartCombatInput) (string, error) {
	chapterID := strings.TrimSpace(input.ChapterID)
	if chapterID == "" {
		return "", domain.ErrEmptyChapterID
	}
	for _, seed := range input.Participants {
		if err := domain.ValidateSeed(seed); err != nil {
			return "", err
		}
	}

	ctx, span := tracer.Start(ctx, "combat.StartCombat",
		trace.WithAttributes(attribute.String("chapter.id", chapterID)))
	defer span.End()

	combatID, err := s.idGenerator()
	if err != nil {
		return "", fmt.Errorf("generate combat id: %w", err)
	}
	now := s.clock().UTC()

	tx, err := s.store.BeginCombat(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.InsertCombatSession(ctx, storage.CombatSessionRecord{
		ID:        combatID,
		ChapterID: chapterID,
		Round:     1,
		Status:    storage.CombatStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return "", err
	}

	for _, seed := range input.Participants {
		participantID, err := s.idGenerator()
		if err != nil {
			return "", fmt.Errorf("generate participant id: %w", err)
		}
		if err := tx.InsertParticipant(ctx, storage.ParticipantRecord{
			ID:         participantID,
			CombatID:   combatID,
			EntityID:   seed.EntityID,
			EntityType: seed.EntityType,
			Name:       strings.TrimSpace(seed.Name),
			Initiative: seed.Initiative,
			CreatedAt:  now,
		}); err != nil {
			return "", err
		}
	}

	// First in turn order opens the combat. A combat with no participants is
	// valid: it keeps a null active reference until someone joins.
	participants, err := tx.ListParticipants(ctx, combatID)
	if err != nil {
		return "", err
	}
	if len(participants) > 0 {
		if err := tx.SetTurn(ctx, combatID, 1, participants[0].ID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return combatID, nil
}

// AdvanceTurn moves the combat to the next participant in initiative order.
//
// Wrapping from the last participant back to the first increments the round
// and decays every effect in the session before the new turn is committed;
// effects that reach zero duration are deleted in the same transaction.
// A removed active participant falls back to the first in order. Advancing a
// combat with no participants is a no-op.
func (s *Service) AdvanceTurn(ctx context.Context, combatID string) error {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return domain.ErrEmptyCombatID
	}

	unlock := s.locks.acquire(combatID)
	defer unlock()

	ctx, span := tracer.Start(ctx, "combat.AdvanceTurn",
		trace.WithAttributes(attribute.String("combat.id", combatID)))
	defer span.End()

	tx, err := s.store.BeginCombat(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	session, err := tx.GetCombatSession(ctx, combatID)
	if err != nil {
		return err
	}
	if session.Status == storage.CombatStatusFinished {
		return ErrCombatFinished
	}

	participants, err := tx.ListParticipants(ctx, combatID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return tx.Commit()
	}

	nextID, roundBoundary := domain.NextTurn(participants, session.ActiveParticipantID)
	round := session.Round
	if roundBoundary {
		round++
		if err := tx.DecayEffects(ctx, combatID); err != nil {
			return err
		}
		if err := tx.DeleteExpiredEffects(ctx, combatID); err != nil {
			return err
		}
	}

	if err := tx.SetTurn(ctx, combatID, round, nextID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddParticipant enrolls a combatant mid-combat and returns its ID. The new
// participant takes its place in initiative order from the next advance.
func (s *Service) AddParticipant(ctx context.Context, input AddParticipantInput) (string, error) {
	combatID := strings.TrimSpace(input.CombatID)
	if combatID == "" {
		return "", domain.ErrEmptyCombatID
	}
	if err := domain.ValidateSeed(domain.ParticipantSeed{
		Name:       input.Name,
		Initiative: input.Initiative,
		EntityID:   input.EntityID,
		EntityType: input.EntityType,
	}); err != nil {
		return "", err
	}

	participantID, err := s.idGenerator()
	if err != nil {
		return "", fmt.Errorf("generate participant id: %w", err)
	}

	if err := s.store.InsertParticipant(ctx, storage.ParticipantRecord{
		ID:         participantID,
		CombatID:   combatID,
		EntityID:   input.EntityID,
		EntityType: input.EntityType,
		Name:       strings.TrimSpace(input.Name),
		Initiative: input.Initiative,
		CreatedAt:  s.clock().UTC(),
	}); err != nil {
		return "", err
	}
	return participantID, nil
}

// RemoveParticipant removes a combatant. Removing the currently active
// participant leaves the session's active reference dangling; the next
// AdvanceTurn resolves it to the first participant in order.
func (s *Service) RemoveParticipant(ctx context.Context, participantID string) error {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.ErrEmptyParticipantID
	}
	return s.store.DeleteParticipant(ctx, participantID)
}

// UpdateInitiative sets a participant's initiative. Turn order is re-derived
// from current values on the next advance, so changing a not-yet-acted
// participant's initiative changes who is next without an explicit resort.
func (s *Service) UpdateInitiative(ctx context.Context, participantID string, value int) error {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.ErrEmptyParticipantID
	}
	return s.store.UpdateParticipantInitiative(ctx, participantID, value)
}

// AddEffect attaches a timed effect to a participant and returns the effect
// ID. The participant must belong to the given combat.
func (s *Service) AddEffect(ctx context.Context, input AddEffectInput) (string, error) {
	combatID := strings.TrimSpace(input.CombatID)
	if combatID == "" {
		return "", domain.ErrEmptyCombatID
	}
	participantID := strings.TrimSpace(input.ParticipantID)
	if participantID == "" {
		return "", domain.ErrEmptyParticipantID
	}
	if strings.TrimSpace(input.Name) == "" {
		return "", domain.ErrEmptyEffectName
	}
	if input.Duration < 1 {
		return "", domain.ErrInvalidEffectDuration
	}

	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return "", err
	}
	if participant.CombatID != combatID {
		return "", apperrors.WithMetadata(apperrors.CodeParticipantWrongCombat,
			"participant is enrolled in a different combat",
			map[string]string{"combat_id": combatID, "participant_id": participantID})
	}

	effectID, err := s.idGenerator()
	if err != nil {
		return "", fmt.Errorf("generate effect id: %w", err)
	}

	if err := s.store.PutEffect(ctx, storage.EffectRecord{
		ID:            effectID,
		CombatID:      combatID,
		ParticipantID: participantID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Duration:      input.Duration,
		TotalDuration: input.Duration,
		CreatedAt:     s.clock().UTC(),
	}); err != nil {
		return "", err
	}
	return effectID, nil
}

// RemoveEffect deletes an effect before its duration runs out.
func (s *Service) RemoveEffect(ctx context.Context, effectID string) error {
	effectID = strings.TrimSpace(effectID)
	if effectID == "" {
		return domain.ErrEmptyEffectID
	}
	return s.store.DeleteEffect(ctx, effectID)
}

// FinishCombat marks a session finished. Finishing is terminal: the session
// reads as absent to callers looking for an active combat, and no further
// turn or effect mutation is valid.
func (s *Service) FinishCombat(ctx context.Context, combatID string) error {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return domain.ErrEmptyCombatID
	}

	unlock := s.locks.acquire(combatID)
	defer unlock()

	return s.store.FinishCombatSession(ctx, combatID)
}
