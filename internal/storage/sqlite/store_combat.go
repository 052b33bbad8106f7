package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/torchlight/internal/storage"
)

// Turn order is initiative descending with enrollment sequence breaking ties,
// so repeated reads always agree.
const selectParticipantsSQL = `
SELECT id, combat_id, entity_id, entity_type, name, initiative, seq, created_at
FROM combat_participants
WHERE combat_id = ?
ORDER BY initiative DESC, seq ASC
`

const selectCombatSessionSQL = `
SELECT id, chapter_id, round, active_participant_id, status, created_at, updated_at
FROM combat_sessions
WHERE id = ?
`

const insertParticipantSQL = `
INSERT INTO combat_participants (
	id, combat_id, entity_id, entity_type, name, initiative, seq, created_at
) VALUES (?, ?, ?, ?, ?, ?,
	(SELECT COALESCE(MAX(seq), 0) + 1 FROM combat_participants WHERE combat_id = ?),
	?)
`

// GetCombatSession fetches a combat session row by ID.
func (s *Store) GetCombatSession(ctx context.Context, combatID string) (storage.CombatSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CombatSessionRecord{}, err
	}
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return storage.CombatSessionRecord{}, fmt.Errorf("combat id is required")
	}

	var rec storage.CombatSessionRecord
	err := s.queryRow(ctx, "get combat session", selectCombatSessionSQL, []any{combatID}, func(rows *sql.Rows) error {
		return scanCombatSession(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CombatSessionRecord{}, storage.ErrNotFound
		}
		return storage.CombatSessionRecord{}, fmt.Errorf("get combat session: %w", err)
	}
	return rec, nil
}

// GetActiveCombatSession fetches the one non-finished session for a chapter.
func (s *Store) GetActiveCombatSession(ctx context.Context, chapterID string) (storage.CombatSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CombatSessionRecord{}, err
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return storage.CombatSessionRecord{}, fmt.Errorf("chapter id is required")
	}

	var rec storage.CombatSessionRecord
	err := s.queryRow(ctx, "get active combat session", `
SELECT id, chapter_id, round, active_participant_id, status, created_at, updated_at
FROM combat_sessions
WHERE chapter_id = ? AND status = ?
ORDER BY created_at DESC
LIMIT 1
`, []any{chapterID, storage.CombatStatusRunning}, func(rows *sql.Rows) error {
		return scanCombatSession(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CombatSessionRecord{}, storage.ErrNotFound
		}
		return storage.CombatSessionRecord{}, fmt.Errorf("get active combat session: %w", err)
	}
	return rec, nil
}

// ListParticipants returns a session's participants in turn order.
func (s *Store) ListParticipants(ctx context.Context, combatID string) ([]storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return nil, fmt.Errorf("combat id is required")
	}

	var records []storage.ParticipantRecord
	err := s.query(ctx, "list participants", selectParticipantsSQL, []any{combatID}, func(rows *sql.Rows) error {
		return scanParticipants(rows, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return records, nil
}

// GetParticipant fetches a participant row by ID.
func (s *Store) GetParticipant(ctx context.Context, participantID string) (storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ParticipantRecord{}, err
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return storage.ParticipantRecord{}, fmt.Errorf("participant id is required")
	}

	var rec storage.ParticipantRecord
	err := s.queryRow(ctx, "get participant", `
SELECT id, combat_id, entity_id, entity_type, name, initiative, seq, created_at
FROM combat_participants
WHERE id = ?
`, []any{participantID}, func(rows *sql.Rows) error {
		return scanParticipant(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ParticipantRecord{}, storage.ErrNotFound
		}
		return storage.ParticipantRecord{}, fmt.Errorf("get participant: %w", err)
	}
	return rec, nil
}

// ListEffects returns all effects attached to a session's participants.
func (s *Store) ListEffects(ctx context.Context, combatID string) ([]storage.EffectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return nil, fmt.Errorf("combat id is required")
	}

	var records []storage.EffectRecord
	err := s.query(ctx, "list effects", `
SELECT id, combat_id, participant_id, name, description, duration, total_duration, created_at
FROM combat_effects
WHERE combat_id = ?
ORDER BY created_at ASC, id ASC
`, []any{combatID}, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.EffectRecord
			if err := scanEffect(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list effects: %w", err)
	}
	return records, nil
}

// GetEffect fetches an effect row by ID.
func (s *Store) GetEffect(ctx context.Context, effectID string) (storage.EffectRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EffectRecord{}, err
	}
	effectID = strings.TrimSpace(effectID)
	if effectID == "" {
		return storage.EffectRecord{}, fmt.Errorf("effect id is required")
	}

	var rec storage.EffectRecord
	err := s.queryRow(ctx, "get effect", `
SELECT id, combat_id, participant_id, name, description, duration, total_duration, created_at
FROM combat_effects
WHERE id = ?
`, []any{effectID}, func(rows *sql.Rows) error {
		return scanEffect(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EffectRecord{}, storage.ErrNotFound
		}
		return storage.EffectRecord{}, fmt.Errorf("get effect: %w", err)
	}
	return rec, nil
}

// InsertParticipant enrolls a participant mid-combat. The enrollment
// sequence is assigned from the session's current maximum.
func (s *Store) InsertParticipant(ctx context.Context, record storage.ParticipantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateParticipant(record); err != nil {
		return err
	}

	_, err := s.execute(ctx, "insert participant", insertParticipantSQL,
		record.ID,
		record.CombatID,
		toNullString(record.EntityID),
		toNullString(string(record.EntityType)),
		record.Name,
		record.Initiative,
		record.CombatID,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// DeleteParticipant removes a participant. Effects attached to it cascade
// away; a dangling active reference is resolved by the next turn advance.
func (s *Store) DeleteParticipant(ctx context.Context, participantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return fmt.Errorf("participant id is required")
	}

	result, err := s.execute(ctx, "delete participant", `
DELETE FROM combat_participants WHERE id = ?
`, participantID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return requireRowAffected(result, "delete participant")
}

// UpdateParticipantInitiative sets a participant's initiative. The stored
// active participant is untouched; order is re-derived on the next advance.
func (s *Store) UpdateParticipantInitiative(ctx context.Context, participantID string, initiative int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return fmt.Errorf("participant id is required")
	}

	result, err := s.execute(ctx, "update participant initiative", `
UPDATE combat_participants SET initiative = ? WHERE id = ?
`, initiative, participantID)
	if err != nil {
		return fmt.Errorf("update participant initiative: %w", err)
	}
	return requireRowAffected(result, "update participant initiative")
}

// PutEffect persists an effect record.
func (s *Store) PutEffect(ctx context.Context, record storage.EffectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("effect id is required")
	}
	if strings.TrimSpace(record.CombatID) == "" {
		return fmt.Errorf("combat id is required")
	}
	if strings.TrimSpace(record.ParticipantID) == "" {
		return fmt.Errorf("participant id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("effect name is required")
	}

	_, err := s.execute(ctx, "put effect", `
INSERT INTO combat_effects (
	id, combat_id, participant_id, name, description, duration, total_duration, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	description = excluded.description,
	duration = excluded.duration
`,
		record.ID,
		record.CombatID,
		record.ParticipantID,
		record.Name,
		record.Description,
		record.Duration,
		record.TotalDuration,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put effect: %w", err)
	}
	return nil
}

// DeleteEffect removes an effect record.
func (s *Store) DeleteEffect(ctx context.Context, effectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	effectID = strings.TrimSpace(effectID)
	if effectID == "" {
		return fmt.Errorf("effect id is required")
	}

	result, err := s.execute(ctx, "delete effect", `DELETE FROM combat_effects WHERE id = ?`, effectID)
	if err != nil {
		return fmt.Errorf("delete effect: %w", err)
	}
	return requireRowAffected(result, "delete effect")
}

// FinishCombatSession marks a session finished. The row is retained for
// history and never mutated again.
func (s *Store) FinishCombatSession(ctx context.Context, combatID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return fmt.Errorf("combat id is required")
	}

	result, err := s.execute(ctx, "finish combat session", `
UPDATE combat_sessions SET status = ?, updated_at = ? WHERE id = ?
`, storage.CombatStatusFinished, toMillis(time.Now()), combatID)
	if err != nil {
		return fmt.Errorf("finish combat session: %w", err)
	}
	return requireRowAffected(result, "finish combat session")
}

func validateParticipant(record storage.ParticipantRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("participant id is required")
	}
	if strings.TrimSpace(record.CombatID) == "" {
		return fmt.Errorf("combat id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("participant name is required")
	}
	if record.EntityType != "" &&
		record.EntityType != storage.EntityTypePlayer &&
		record.EntityType != storage.EntityTypeOpponent {
		return fmt.Errorf("unknown entity type %q", record.EntityType)
	}
	return nil
}

func scanCombatSession(rows *sql.Rows, rec *storage.CombatSessionRecord) error {
	var activeParticipantID sql.NullString
	var status string
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.ChapterID,
		&rec.Round,
		&activeParticipantID,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	rec.ActiveParticipantID = fromNullString(activeParticipantID)
	rec.Status = storage.CombatStatus(status)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}

func scanParticipant(rows *sql.Rows, rec *storage.ParticipantRecord) error {
	var entityID sql.NullString
	var entityType sql.NullString
	var createdAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.CombatID,
		&entityID,
		&entityType,
		&rec.Name,
		&rec.Initiative,
		&rec.Seq,
		&createdAt,
	); err != nil {
		return err
	}
	rec.EntityID = fromNullString(entityID)
	rec.EntityType = storage.EntityType(fromNullString(entityType))
	rec.CreatedAt = fromMillis(createdAt)
	return nil
}

func scanParticipants(rows *sql.Rows, records *[]storage.ParticipantRecord) error {
	for rows.Next() {
		var rec storage.ParticipantRecord
		if err := scanParticipant(rows, &rec); err != nil {
			return err
		}
		*records = append(*records, rec)
	}
	return rows.Err()
}

func scanEffect(rows *sql.Rows, rec *storage.EffectRecord) error {
	var createdAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.CombatID,
		&rec.ParticipantID,
		&rec.Name,
		&rec.Description,
		&rec.Duration,
		&rec.TotalDuration,
		&createdAt,
	); err != nil {
		return err
	}
	rec.CreatedAt = fromMillis(createdAt)
	return nil
}
