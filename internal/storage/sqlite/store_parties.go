package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutParty persists a party record.
func (s *Store) PutParty(ctx context.Context, record storage.PartyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("party id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("party name is required")
	}

	_, err := s.execute(ctx, "put party", `
INSERT INTO parties (
	id, name, description, created_at, updated_at
) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	description = excluded.description,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.Description,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put party: %w", err)
	}
	return nil
}

// GetParty fetches a party record by ID.
func (s *Store) GetParty(ctx context.Context, partyID string) (storage.PartyRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PartyRecord{}, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return storage.PartyRecord{}, fmt.Errorf("party id is required")
	}

	var rec storage.PartyRecord
	err := s.queryRow(ctx, "get party", `
SELECT id, name, description, created_at, updated_at
FROM parties
WHERE id = ?
`, []any{partyID}, func(rows *sql.Rows) error {
		return scanParty(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PartyRecord{}, storage.ErrNotFound
		}
		return storage.PartyRecord{}, fmt.Errorf("get party: %w", err)
	}
	return rec, nil
}

// GetPartyDetail fetches a party joined with its player roster.
func (s *Store) GetPartyDetail(ctx context.Context, partyID string) (storage.PartyDetail, error) {
	party, err := s.GetParty(ctx, partyID)
	if err != nil {
		return storage.PartyDetail{}, err
	}
	players, err := s.ListPlayersByParty(ctx, partyID)
	if err != nil {
		return storage.PartyDetail{}, err
	}
	return storage.PartyDetail{Party: party, Players: players}, nil
}

// ListParties returns all parties ordered by name.
func (s *Store) ListParties(ctx context.Context) ([]storage.PartyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []storage.PartyRecord
	err := s.query(ctx, "list parties", `
SELECT id, name, description, created_at, updated_at
FROM parties
ORDER BY name ASC
`, nil, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.PartyRecord
			if err := scanParty(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return records, nil
}

// DeleteParty removes a party. Member players keep their rows with the party
// reference cleared.
func (s *Store) DeleteParty(ctx context.Context, partyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}

	result, err := s.execute(ctx, "delete party", `DELETE FROM parties WHERE id = ?`, partyID)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	return requireRowAffected(result, "delete party")
}

func scanParty(rows *sql.Rows, rec *storage.PartyRecord) error {
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}
