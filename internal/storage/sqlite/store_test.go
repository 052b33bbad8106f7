// Package sqlite tests the persistence gateway lifecycle and retry helpers.
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/torchlight/internal/storage"
)

// newTestStore opens a store in a temp directory and closes it on cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "torchlight.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

// testTime returns a fixed timestamp for deterministic records.
func testTime() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

// seedChapter inserts a chapter row and returns its ID.
func seedChapter(t *testing.T, store *Store, chapterID string) string {
	t.Helper()

	now := testTime()
	if err := store.PutChapter(context.Background(), storage.ChapterRecord{
		ID:        chapterID,
		Name:      "Chapter " + chapterID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	return chapterID
}

// TestOpenRequiresPath ensures a blank path is rejected.
func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// TestOpenIsIdempotent ensures reopening an existing database reapplies
// migrations without error and keeps prior data.
func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "torchlight.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	now := testTime()
	if err := store.PutChapter(ctx, storage.ChapterRecord{
		ID:        "chapter-1",
		Name:      "The Sunken Vault",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put chapter: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer store.Close()

	chapter, err := store.GetChapter(ctx, "chapter-1")
	if err != nil {
		t.Fatalf("get chapter: %v", err)
	}
	if chapter.Name != "The Sunken Vault" {
		t.Fatalf("expected chapter to survive reopen, got %+v", chapter)
	}
}

// TestCloseNilSafe ensures Close tolerates unopened stores.
func TestCloseNilSafe(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := (&Store{}).Close(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

// TestIsBusyError classifies transient failures against structural ones.
func TestIsBusyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "database locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "table locked", err: errors.New("table is locked"), want: true},
		{name: "busy", err: errors.New("SQLITE_BUSY: database busy"), want: true},
		{name: "constraint", err: errors.New("UNIQUE constraint failed: chapters.id"), want: false},
		{name: "syntax", err: errors.New("near \"SELEC\": syntax error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBusyError(tt.err); got != tt.want {
				t.Fatalf("isBusyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestRetryDelayBackoff ensures each attempt's delay doubles within the
// jitter bound.
func TestRetryDelayBackoff(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < maxStatementAttempts-1; attempt++ {
		min := retryBaseDelay << attempt
		max := min + retryJitterBound
		got := retryDelay(attempt)
		if got < min || got >= max {
			t.Fatalf("attempt %d: delay %s outside [%s, %s)", attempt, got, min, max)
		}
	}
}

// TestTimestampsRoundTripAsUTCMillis ensures stored times come back in UTC at
// millisecond precision.
func TestTimestampsRoundTripAsUTCMillis(t *testing.T) {
	t.Parallel()

	eastern := time.FixedZone("UTC-5", -5*60*60)
	value := time.Date(2026, 3, 14, 9, 30, 0, 123456789, eastern)

	got := fromMillis(toMillis(value))
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if want := value.UTC().Truncate(time.Millisecond); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestNullStringMapping ensures blank strings map to NULL and back.
func TestNullStringMapping(t *testing.T) {
	t.Parallel()

	if toNullString("  ").Valid {
		t.Fatal("expected blank string to map to NULL")
	}
	mapped := toNullString("player-1")
	if !mapped.Valid || mapped.String != "player-1" {
		t.Fatalf("expected valid string, got %+v", mapped)
	}
	if got := fromNullString(mapped); got != "player-1" {
		t.Fatalf("expected player-1, got %q", got)
	}
	if got := fromNullString(toNullString("")); got != "" {
		t.Fatalf("expected empty string for NULL, got %q", got)
	}
}
