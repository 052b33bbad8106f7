package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutOpponent persists an opponent stat block.
func (s *Store) PutOpponent(ctx context.Context, record storage.OpponentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("opponent id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("opponent name is required")
	}

	_, err := s.execute(ctx, "put opponent", `
INSERT INTO opponents (
	id, name, level, max_hp, armor_class, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	level = excluded.level,
	max_hp = excluded.max_hp,
	armor_class = excluded.armor_class,
	notes = excluded.notes,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.Level,
		record.MaxHP,
		record.ArmorClass,
		record.Notes,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put opponent: %w", err)
	}
	return nil
}

// GetOpponent fetches an opponent record by ID.
func (s *Store) GetOpponent(ctx context.Context, opponentID string) (storage.OpponentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OpponentRecord{}, err
	}
	opponentID = strings.TrimSpace(opponentID)
	if opponentID == "" {
		return storage.OpponentRecord{}, fmt.Errorf("opponent id is required")
	}

	var rec storage.OpponentRecord
	err := s.queryRow(ctx, "get opponent", `
SELECT id, name, level, max_hp, armor_class, notes, created_at, updated_at
FROM opponents
WHERE id = ?
`, []any{opponentID}, func(rows *sql.Rows) error {
		return scanOpponent(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OpponentRecord{}, storage.ErrNotFound
		}
		return storage.OpponentRecord{}, fmt.Errorf("get opponent: %w", err)
	}
	return rec, nil
}

// ListOpponents returns all opponents ordered by name.
func (s *Store) ListOpponents(ctx context.Context) ([]storage.OpponentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []storage.OpponentRecord
	err := s.query(ctx, "list opponents", `
SELECT id, name, level, max_hp, armor_class, notes, created_at, updated_at
FROM opponents
ORDER BY name ASC
`, nil, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.OpponentRecord
			if err := scanOpponent(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list opponents: %w", err)
	}
	return records, nil
}

// DeleteOpponent removes an opponent record.
func (s *Store) DeleteOpponent(ctx context.Context, opponentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opponentID = strings.TrimSpace(opponentID)
	if opponentID == "" {
		return fmt.Errorf("opponent id is required")
	}

	result, err := s.execute(ctx, "delete opponent", `DELETE FROM opponents WHERE id = ?`, opponentID)
	if err != nil {
		return fmt.Errorf("delete opponent: %w", err)
	}
	return requireRowAffected(result, "delete opponent")
}

func scanOpponent(rows *sql.Rows, rec *storage.OpponentRecord) error {
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Level,
		&rec.MaxHP,
		&rec.ArmorClass,
		&rec.Notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}
