package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutToken persists a token placement.
func (s *Store) PutToken(ctx context.Context, record storage.TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("token id is required")
	}
	if strings.TrimSpace(record.EncounterID) == "" {
		return fmt.Errorf("encounter id is required")
	}
	if record.EntityType != "" &&
		record.EntityType != storage.EntityTypePlayer &&
		record.EntityType != storage.EntityTypeOpponent {
		return fmt.Errorf("unknown entity type %q", record.EntityType)
	}

	_, err := s.execute(ctx, "put token", `
INSERT INTO tokens (
	id, encounter_id, entity_id, entity_type, x, y, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	encounter_id = excluded.encounter_id,
	entity_id = excluded.entity_id,
	entity_type = excluded.entity_type,
	x = excluded.x,
	y = excluded.y,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.EncounterID,
		toNullString(record.EntityID),
		toNullString(string(record.EntityType)),
		record.X,
		record.Y,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put token: %w", err)
	}
	return nil
}

// GetToken fetches a token placement by ID.
func (s *Store) GetToken(ctx context.Context, tokenID string) (storage.TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TokenRecord{}, err
	}
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return storage.TokenRecord{}, fmt.Errorf("token id is required")
	}

	var rec storage.TokenRecord
	err := s.queryRow(ctx, "get token", `
SELECT id, encounter_id, entity_id, entity_type, x, y, created_at, updated_at
FROM tokens
WHERE id = ?
`, []any{tokenID}, func(rows *sql.Rows) error {
		return scanToken(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TokenRecord{}, storage.ErrNotFound
		}
		return storage.TokenRecord{}, fmt.Errorf("get token: %w", err)
	}
	return rec, nil
}

// ListTokensByEncounter returns the tokens placed in an encounter.
func (s *Store) ListTokensByEncounter(ctx context.Context, encounterID string) ([]storage.TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return nil, fmt.Errorf("encounter id is required")
	}

	var records []storage.TokenRecord
	err := s.query(ctx, "list tokens by encounter", `
SELECT id, encounter_id, entity_id, entity_type, x, y, created_at, updated_at
FROM tokens
WHERE encounter_id = ?
ORDER BY created_at ASC, id ASC
`, []any{encounterID}, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.TokenRecord
			if err := scanToken(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tokens by encounter: %w", err)
	}
	return records, nil
}

// MoveToken updates a token's canvas position.
func (s *Store) MoveToken(ctx context.Context, tokenID string, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return fmt.Errorf("token id is required")
	}

	result, err := s.execute(ctx, "move token", `
UPDATE tokens SET x = ?, y = ? WHERE id = ?
`, x, y, tokenID)
	if err != nil {
		return fmt.Errorf("move token: %w", err)
	}
	return requireRowAffected(result, "move token")
}

// DeleteToken removes a token placement.
func (s *Store) DeleteToken(ctx context.Context, tokenID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return fmt.Errorf("token id is required")
	}

	result, err := s.execute(ctx, "delete token", `DELETE FROM tokens WHERE id = ?`, tokenID)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return requireRowAffected(result, "delete token")
}

func scanToken(rows *sql.Rows, rec *storage.TokenRecord) error {
	var entityID sql.NullString
	var entityType sql.NullString
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.EncounterID,
		&entityID,
		&entityType,
		&rec.X,
		&rec.Y,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	rec.EntityID = fromNullString(entityID)
	rec.EntityType = storage.EntityType(fromNullString(entityType))
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}
