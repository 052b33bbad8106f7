package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutPlayer persists a player record.
func (s *Store) PutPlayer(ctx context.Context, record storage.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("player name is required")
	}

	_, err := s.execute(ctx, "put player", `
INSERT INTO players (
	id, party_id, name, level, max_hp, armor_class, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	party_id = excluded.party_id,
	name = excluded.name,
	level = excluded.level,
	max_hp = excluded.max_hp,
	armor_class = excluded.armor_class,
	notes = excluded.notes,
	updated_at = excluded.updated_at
`,
		record.ID,
		toNullString(record.PartyID),
		record.Name,
		record.Level,
		record.MaxHP,
		record.ArmorClass,
		record.Notes,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

// GetPlayer fetches a player record by ID.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlayerRecord{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.PlayerRecord{}, fmt.Errorf("player id is required")
	}

	var rec storage.PlayerRecord
	err := s.queryRow(ctx, "get player", `
SELECT id, party_id, name, level, max_hp, armor_class, notes, created_at, updated_at
FROM players
WHERE id = ?
`, []any{playerID}, func(rows *sql.Rows) error {
		return scanPlayer(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PlayerRecord{}, storage.ErrNotFound
		}
		return storage.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	return rec, nil
}

// ListPlayersByParty returns the players enrolled in a party ordered by name.
func (s *Store) ListPlayersByParty(ctx context.Context, partyID string) ([]storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, fmt.Errorf("party id is required")
	}

	var records []storage.PlayerRecord
	err := s.query(ctx, "list players by party", `
SELECT id, party_id, name, level, max_hp, armor_class, notes, created_at, updated_at
FROM players
WHERE party_id = ?
ORDER BY name ASC
`, []any{partyID}, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.PlayerRecord
			if err := scanPlayer(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list players by party: %w", err)
	}
	return records, nil
}

// DeletePlayer removes a player record.
func (s *Store) DeletePlayer(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}

	result, err := s.execute(ctx, "delete player", `DELETE FROM players WHERE id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return requireRowAffected(result, "delete player")
}

func scanPlayer(rows *sql.Rows, rec *storage.PlayerRecord) error {
	var partyID sql.NullString
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&partyID,
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
	rec.PartyID = fromNullString(partyID)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}
