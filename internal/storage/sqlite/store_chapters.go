package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/storage"
)

// PutChapter persists a chapter record.
func (s *Store) PutChapter(ctx context.Context, record storage.ChapterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("chapter id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("chapter name is required")
	}

	_, err := s.execute(ctx, "put chapter", `
INSERT INTO chapters (
	id, name, description, sort_order, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	description = excluded.description,
	sort_order = excluded.sort_order,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.Description,
		record.SortOrder,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put chapter: %w", err)
	}
	return nil
}

// GetChapter fetches a chapter record by ID.
func (s *Store) GetChapter(ctx context.Context, chapterID string) (storage.ChapterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ChapterRecord{}, err
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return storage.ChapterRecord{}, fmt.Errorf("chapter id is required")
	}

	var rec storage.ChapterRecord
	err := s.queryRow(ctx, "get chapter", `
SELECT id, name, description, sort_order, created_at, updated_at
FROM chapters
WHERE id = ?
`, []any{chapterID}, func(rows *sql.Rows) error {
		return scanChapter(rows, &rec)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ChapterRecord{}, storage.ErrNotFound
		}
		return storage.ChapterRecord{}, fmt.Errorf("get chapter: %w", err)
	}
	return rec, nil
}

// ListChapters returns all chapters ordered by sort order, then name.
func (s *Store) ListChapters(ctx context.Context) ([]storage.ChapterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []storage.ChapterRecord
	err := s.query(ctx, "list chapters", `
SELECT id, name, description, sort_order, created_at, updated_at
FROM chapters
ORDER BY sort_order ASC, name ASC
`, nil, func(rows *sql.Rows) error {
		for rows.Next() {
			var rec storage.ChapterRecord
			if err := scanChapter(rows, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return records, nil
}

// DeleteChapter removes a chapter. Combat sessions and encounters owned by
// the chapter cascade away with it.
func (s *Store) DeleteChapter(ctx context.Context, chapterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return fmt.Errorf("chapter id is required")
	}

	result, err := s.execute(ctx, "delete chapter", `DELETE FROM chapters WHERE id = ?`, chapterID)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return requireRowAffected(result, "delete chapter")
}

func scanChapter(rows *sql.Rows, rec *storage.ChapterRecord) error {
	var createdAt int64
	var updatedAt int64
	if err := rows.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Description,
		&rec.SortOrder,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return nil
}
