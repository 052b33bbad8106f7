// Package projection tests the combat read projection.
package projection

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/torchlight/internal/combat/domain"
	"github.com/louisbranch/torchlight/internal/combat/service"
	"github.com/louisbranch/torchlight/internal/storage"
	"github.com/louisbranch/torchlight/internal/storage/sqlite"
)

// newTestProjector creates a projector, an engine, and a seeded chapter over
// a fresh store.
func newTestProjector(t *testing.T) (*Projector, *service.Service, string) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "torchlight.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	chapter := storage.ChapterRecord{
		ID:        "chapter-1",
		Name:      "The Sunken Vault",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutChapter(context.Background(), chapter); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}

	return New(store), service.New(store), chapter.ID
}

// TestGetFullStateWhenIdle ensures a chapter without a running combat reads
// as nil state without error.
func TestGetFullStateWhenIdle(t *testing.T) {
	t.Parallel()
	projector, _, chapterID := newTestProjector(t)

	state, err := projector.GetFullState(context.Background(), chapterID)
	if err != nil {
		t.Fatalf("get full state: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state, got %+v", state)
	}
}

// TestGetFullStateValidatesChapterID ensures a blank chapter is rejected.
func TestGetFullStateValidatesChapterID(t *testing.T) {
	t.Parallel()
	projector, _, _ := newTestProjector(t)

	if _, err := projector.GetFullState(context.Background(), "  "); !errors.Is(err, domain.ErrEmptyChapterID) {
		t.Fatalf("expected empty chapter error, got %v", err)
	}
}

// TestGetFullStateAssemblesRunningCombat ensures the snapshot carries the
// session, participants in turn order, and attached effects.
func TestGetFullStateAssemblesRunningCombat(t *testing.T) {
	t.Parallel()
	projector, engine, chapterID := newTestProjector(t)
	ctx := context.Background()

	combatID, err := engine.StartCombat(ctx, service.StartCombatInput{
		ChapterID: chapterID,
		Participants: []domain.ParticipantSeed{
			{Name: "Aldric", Initiative: 10},
			{Name: "Brennan", Initiative: 20},
		},
	})
	if err != nil {
		t.Fatalf("start combat: %v", err)
	}

	state, err := projector.GetFullState(ctx, chapterID)
	if err != nil {
		t.Fatalf("get full state: %v", err)
	}
	if state == nil {
		t.Fatal("expected running combat state")
	}
	if state.Session.ID != combatID {
		t.Fatalf("expected session %q, got %q", combatID, state.Session.ID)
	}
	if len(state.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(state.Participants))
	}
	if state.Participants[0].Name != "Brennan" || state.Participants[1].Name != "Aldric" {
		t.Fatalf("expected initiative order Brennan, Aldric; got %q, %q",
			state.Participants[0].Name, state.Participants[1].Name)
	}
	if state.Session.ActiveParticipantID != state.Participants[0].ID {
		t.Fatalf("expected first in order to be active, got %q", state.Session.ActiveParticipantID)
	}

	if _, err := engine.AddEffect(ctx, service.AddEffectInput{
		CombatID:      combatID,
		ParticipantID: state.Participants[0].ID,
		Name:          "Blessed",
		Duration:      3,
	}); err != nil {
		t.Fatalf("add effect: %v", err)
	}

	state, err = projector.GetFullState(ctx, chapterID)
	if err != nil {
		t.Fatalf("get full state: %v", err)
	}
	if len(state.Effects) != 1 || state.Effects[0].Name != "Blessed" {
		t.Fatalf("expected blessed effect, got %+v", state.Effects)
	}
}

// TestGetFullStateIsReadOnly ensures repeated reads return the same snapshot
// without mutating the session.
func TestGetFullStateIsReadOnly(t *testing.T) {
	t.Parallel()
	projector, engine, chapterID := newTestProjector(t)
	ctx := context.Background()

	if _, err := engine.StartCombat(ctx, service.StartCombatInput{
		ChapterID:    chapterID,
		Participants: []domain.ParticipantSeed{{Name: "Aldric", Initiative: 10}},
	}); err != nil {
		t.Fatalf("start combat: %v", err)
	}

	first, err := projector.GetFullState(ctx, chapterID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := projector.GetFullState(ctx, chapterID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first.Session.Round != second.Session.Round ||
		first.Session.ActiveParticipantID != second.Session.ActiveParticipantID {
		t.Fatalf("expected identical snapshots, got %+v and %+v", first.Session, second.Session)
	}
}

// TestGetFullStateAfterFinish ensures a finished combat reads as idle.
func TestGetFullStateAfterFinish(t *testing.T) {
	t.Parallel()
	projector, engine, chapterID := newTestProjector(t)
	ctx := context.Background()

	combatID, err := engine.StartCombat(ctx, service.StartCombatInput{
		ChapterID:    chapterID,
		Participants: []domain.ParticipantSeed{{Name: "Aldric", Initiative: 10}},
	})
	if err != nil {
		t.Fatalf("start combat: %v", err)
	}
	if err := engine.FinishCombat(ctx, combatID); err != nil {
		t.Fatalf("finish combat: %v", err)
	}

	state, err := projector.GetFullState(ctx, chapterID)
	if err != nil {
		t.Fatalf("get full state: %v", err)
	}
	if state != nil {
		t.Fatalf("expected idle state after finish, got %+v", state)
	}
}
