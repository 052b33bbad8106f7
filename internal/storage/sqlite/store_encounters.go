package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutEncounter persists an encounter record.
func (s *Store) PutEncounter(ctx context.Context, record storage.EncounterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("encounter id is required")
	}
	if strings.TrimSpace(record.ChapterID) == "" {
		return fmt.Errorf("chapter id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("encounter name is required")
	}

	_, err := s.execute(ctx, "put encounter", `
INSERT INTO encounters (
	id, chapter_id, name, description, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	chapter_id = excluded.chapter_id,
	name = excluded.name,
	description = excluded.description,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.ChapterID,
		record.Name,
		record.Description,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put encounter: %w", err)
	}
	return nil
}

// GetEncounter fetches an encounter record by ID.
func (s *Store) GetEncounter(ctx context.Context, encounterID string) (storage.EncounterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EncounterRecord{}, err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return storage.EncounterRecord{}, fmt.Errorf("encounter id is required")
	}

	var rec storage.EncounterRecord
	err := s.queryRow(ctx, "get encounter", `
SELECT id, chapter_id, name, description, created_at, updated_at
FROM encounters
WHERE id = ?
`, []any{encounterID}, func(rows *sql.Rows) error {
		return scanEncounter(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EncounterRecord{}, storage.ErrNotFound
		}
		return storage.EncounterRecord{}, fmt.Errorf("get encounter: %w", err)
	}
	return rec, nil
}

// GetEncounterDetail fetches an encounter joined with its token placements.
func (s *Store) GetEncounterDetail(ctx context.Context, encounterID string) (storage.EncounterDetail, error) {
	encounter, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return storage.EncounterDetail{}, err
	}
	tokens, err := s.ListTokensByEncounter(ctx, encounterID)
	if err != nil {
		return storage.EncounterDetail{}, err
	}
	return storage.EncounterDetail{Encounter: encounter, Tokens: tokens}, nil
}

// ListEncountersByChapter returns the encounters authored under a chapter.
func (s *Store) ListEncountersByChapter(ctx context.Context, chapterID string) ([]storage.EncounterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return nil, fmt.Errorf("chapter id is required")
	}

	var records []storage.EncounterRecord
	err := s.query(ctx, "list encounters by chapter", `
SELECT id, chapter_id, name, description, created_at, updated_at
FROM encounters
WHERE chapter_id = ?
ORDER BY name ASC
`, []any{chapterID}, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.EncounterRecord
			if err := scanEncounter(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list encounters by chapter: %w", err)
	}
	return records, nil
}

// DeleteEncounter removes an encounter. Its tokens cascade away with it.
func (s *Store) DeleteEncounter(ctx context.Context, encounterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return fmt.Errorf("encounter id is required")
	}

	result, err := s.execute(ctx, "delete encounter", `DELETE FROM encounters WHERE id = ?`, encounterID)
	if err != nil {
		return fmt.Errorf("delete encounter: %w", err)
	}
	return requireRowAffected(result, "delete encounter")
}

func scanEncounter(rows *sql.Rows, rec *storage.EncounterRecord) error {
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.ChapterID,
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
