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

// combatTx is an explicit combat transaction. Statements issued through it
// are not busy-retried: a partially applied multi-statement write must never
// be silently replayed, so the caller owns rollback-and-retry decisions.
type combatTx struct {
	tx *sql.Tx
}

// BeginCombat opens an explicit transaction for a multi-statement combat
// mutation.
func (s *Store) BeginCombat(ctx context.Context) (storage.CombatTx, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin combat tx: %w", err)
	}
	return &combatTx{tx: tx}, nil
}

// InsertCombatSession inserts the session row for a starting combat.
func (t *combatTx) InsertCombatSession(ctx context.Context, record storage.CombatSessionRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("combat id is required")
	}
	if strings.TrimSpace(record.ChapterID) == "" {
		return fmt.Errorf("chapter id is required")
	}
	if record.Round < 1 {
		return fmt.Errorf("round must be at least 1")
	}

	_, err := t.tx.ExecContext(ctx, `
INSERT INTO combat_sessions (
	id, chapter_id, round, active_participant_id, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.ChapterID,
		record.Round,
		toNullString(record.ActiveParticipantID),
		record.Status,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert combat session: %w", err)
	}
	return nil
}

// InsertParticipant enrolls a seed participant inside the transaction.
func (t *combatTx) InsertParticipant(ctx context.Context, record storage.ParticipantRecord) error {
	if err := validateParticipant(record); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, insertParticipantSQL,
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

// GetCombatSession reads the session row within the transaction.
func (t *combatTx) GetCombatSession(ctx context.Context, combatID string) (storage.CombatSessionRecord, error) {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return storage.CombatSessionRecord{}, fmt.Errorf("combat id is required")
	}

	rows, err := t.tx.QueryContext(ctx, selectCombatSessionSQL, combatID)
	if err != nil {
		return storage.CombatSessionRecord{}, fmt.Errorf("get combat session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return storage.CombatSessionRecord{}, fmt.Errorf("get combat session: %w", err)
		}
		return storage.CombatSessionRecord{}, storage.ErrNotFound
	}
	var rec storage.CombatSessionRecord
	if err := scanCombatSession(rows, &rec); err != nil {
		return storage.CombatSessionRecord{}, fmt.Errorf("get combat session: %w", err)
	}
	return rec, nil
}

// ListParticipants reads the session's participants in turn order within the
// transaction.
func (t *combatTx) ListParticipants(ctx context.Context, combatID string) ([]storage.ParticipantRecord, error) {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return nil, fmt.Errorf("combat id is required")
	}

	rows, err := t.tx.QueryContext(ctx, selectParticipantsSQL, combatID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var records []storage.ParticipantRecord
	if err := scanParticipants(rows, &records); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return records, nil
}

// SetTurn persists the session's round and active participant together.
func (t *combatTx) SetTurn(ctx context.Context, combatID string, round int, activeParticipantID string) error {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return fmt.Errorf("combat id is required")
	}
	if round < 1 {
		return fmt.Errorf("round must be at least 1")
	}

	result, err := t.tx.ExecContext(ctx, `
UPDATE combat_sessions SET round = ?, active_participant_id = ?, updated_at = ? WHERE id = ?
`, round, toNullString(activeParticipantID), toMillis(time.Now()), combatID)
	if err != nil {
		return fmt.Errorf("set turn: %w", err)
	}
	return requireRowAffected(result, "set turn")
}

// DecayEffects decrements the remaining duration of every effect in the
// session by one round.
func (t *combatTx) DecayEffects(ctx context.Context, combatID string) error {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return fmt.Errorf("combat id is required")
	}

	_, err := t.tx.ExecContext(ctx, `
UPDATE combat_effects SET duration = duration - 1 WHERE combat_id = ?
`, combatID)
	if err != nil {
		return fmt.Errorf("decay effects: %w", err)
	}
	return nil
}

// DeleteExpiredEffects removes effects whose duration reached zero. Expired
// effects are deleted, not flagged, so the next read never sees them.
func (t *combatTx) DeleteExpiredEffects(ctx context.Context, combatID string) error {
	combatID = strings.TrimSpace(combatID)
	if combatID == "" {
		return fmt.Errorf("combat id is required")
	}

	_, err := t.tx.ExecContext(ctx, `
DELETE FROM combat_effects WHERE combat_id = ? AND duration <= 0
`, combatID)
	if err != nil {
		return fmt.Errorf("delete expired effects: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (t *combatTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit combat tx: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. Safe to defer after Commit.
func (t *combatTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback combat tx: %w", err)
	}
	return nil
}
