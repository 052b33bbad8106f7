// Package sqlite tests the roster repositories: chapters, parties, players,
// opponents, encounters, and tokens.
package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/torchlight/internal/storage"
)

// TestChapterLifecycle exercises upsert, read, list ordering, and delete.
func TestChapterLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()

	chapters := []storage.ChapterRecord{
		{ID: "chapter-2", Name: "The Ember Court", SortOrder: 2, CreatedAt: now, UpdatedAt: now},
		{ID: "chapter-1", Name: "The Sunken Vault", SortOrder: 1, CreatedAt: now, UpdatedAt: now},
	}
	for _, chapter := range chapters {
		if err := store.PutChapter(ctx, chapter); err != nil {
			t.Fatalf("put chapter: %v", err)
		}
	}

	listed, err := store.ListChapters(ctx)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "chapter-1" || listed[1].ID != "chapter-2" {
		t.Fatalf("expected sort-order listing, got %+v", listed)
	}

	// Upsert replaces fields in place.
	updated := chapters[1]
	updated.Description = "Flooded dwarven ruin"
	if err := store.PutChapter(ctx, updated); err != nil {
		t.Fatalf("update chapter: %v", err)
	}
	chapter, err := store.GetChapter(ctx, "chapter-1")
	if err != nil {
		t.Fatalf("get chapter: %v", err)
	}
	if chapter.Description != "Flooded dwarven ruin" {
		t.Fatalf("expected updated description, got %q", chapter.Description)
	}

	if err := store.DeleteChapter(ctx, "chapter-1"); err != nil {
		t.Fatalf("delete chapter: %v", err)
	}
	if _, err := store.GetChapter(ctx, "chapter-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeleteChapter(ctx, "chapter-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

// TestPartyDetailIncludesPlayers ensures the detail view carries the roster.
func TestPartyDetailIncludesPlayers(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()

	party := storage.PartyRecord{ID: "party-1", Name: "Lanternbearers", CreatedAt: now, UpdatedAt: now}
	if err := store.PutParty(ctx, party); err != nil {
		t.Fatalf("put party: %v", err)
	}
	players := []storage.PlayerRecord{
		{ID: "player-1", PartyID: "party-1", Name: "Aldric", Level: 3, MaxHP: 24, ArmorClass: 16, CreatedAt: now, UpdatedAt: now},
		{ID: "player-2", PartyID: "party-1", Name: "Brennan", Level: 3, MaxHP: 18, ArmorClass: 13, CreatedAt: now, UpdatedAt: now},
	}
	for _, player := range players {
		if err := store.PutPlayer(ctx, player); err != nil {
			t.Fatalf("put player: %v", err)
		}
	}

	detail, err := store.GetPartyDetail(ctx, "party-1")
	if err != nil {
		t.Fatalf("get party detail: %v", err)
	}
	if detail.Party.Name != "Lanternbearers" {
		t.Fatalf("expected party name, got %q", detail.Party.Name)
	}
	if len(detail.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(detail.Players))
	}
	if detail.Players[0].Name != "Aldric" || detail.Players[1].Name != "Brennan" {
		t.Fatalf("expected name ordering, got %+v", detail.Players)
	}
}

// TestDeletePartyDetachesPlayers ensures players survive a deleted party with
// their membership cleared.
func TestDeletePartyDetachesPlayers(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()

	if err := store.PutParty(ctx, storage.PartyRecord{ID: "party-1", Name: "Lanternbearers", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("put party: %v", err)
	}
	if err := store.PutPlayer(ctx, storage.PlayerRecord{ID: "player-1", PartyID: "party-1", Name: "Aldric", Level: 3, MaxHP: 24, ArmorClass: 16, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("put player: %v", err)
	}

	if err := store.DeleteParty(ctx, "party-1"); err != nil {
		t.Fatalf("delete party: %v", err)
	}
	player, err := store.GetPlayer(ctx, "player-1")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if player.PartyID != "" {
		t.Fatalf("expected detached player, got party %q", player.PartyID)
	}
}

// TestOpponentLifecycle exercises opponent upsert, list, and delete.
func TestOpponentLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()

	opponents := []storage.OpponentRecord{
		{ID: "opponent-1", Name: "Gravewarden", Level: 5, MaxHP: 60, ArmorClass: 17, CreatedAt: now, UpdatedAt: now},
		{ID: "opponent-2", Name: "Bog Wretch", Level: 1, MaxHP: 9, ArmorClass: 11, CreatedAt: now, UpdatedAt: now},
	}
	for _, opponent := range opponents {
		if err := store.PutOpponent(ctx, opponent); err != nil {
			t.Fatalf("put opponent: %v", err)
		}
	}

	listed, err := store.ListOpponents(ctx)
	if err != nil {
		t.Fatalf("list opponents: %v", err)
	}
	if len(listed) != 2 || listed[0].Name != "Bog Wretch" {
		t.Fatalf("expected name ordering, got %+v", listed)
	}

	if err := store.DeleteOpponent(ctx, "opponent-2"); err != nil {
		t.Fatalf("delete opponent: %v", err)
	}
	if _, err := store.GetOpponent(ctx, "opponent-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// TestEncounterDetailAndTokenMoves exercises the encounter view and token
// placement updates.
func TestEncounterDetailAndTokenMoves(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()
	seedChapter(t, store, "chapter-1")

	if err := store.PutEncounter(ctx, storage.EncounterRecord{
		ID:        "encounter-1",
		ChapterID: "chapter-1",
		Name:      "Vault Antechamber",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put encounter: %v", err)
	}
	if err := store.PutToken(ctx, storage.TokenRecord{
		ID:          "token-1",
		EncounterID: "encounter-1",
		EntityID:    "opponent-1",
		EntityType:  storage.EntityTypeOpponent,
		X:           2,
		Y:           3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("put token: %v", err)
	}

	if err := store.MoveToken(ctx, "token-1", 7, 5); err != nil {
		t.Fatalf("move token: %v", err)
	}
	detail, err := store.GetEncounterDetail(ctx, "encounter-1")
	if err != nil {
		t.Fatalf("get encounter detail: %v", err)
	}
	if len(detail.Tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(detail.Tokens))
	}
	if detail.Tokens[0].X != 7 || detail.Tokens[0].Y != 5 {
		t.Fatalf("expected token at (7,5), got (%d,%d)", detail.Tokens[0].X, detail.Tokens[0].Y)
	}

	if err := store.MoveToken(ctx, "missing", 0, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for missing token, got %v", err)
	}
}

// TestDeleteChapterCascadesEncountersAndTokens ensures the chapter subtree is
// removed in one delete.
func TestDeleteChapterCascadesEncountersAndTokens(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()
	seedChapter(t, store, "chapter-1")

	if err := store.PutEncounter(ctx, storage.EncounterRecord{
		ID:        "encounter-1",
		ChapterID: "chapter-1",
		Name:      "Vault Antechamber",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put encounter: %v", err)
	}
	if err := store.PutToken(ctx, storage.TokenRecord{
		ID:          "token-1",
		EncounterID: "encounter-1",
		EntityID:    "opponent-1",
		EntityType:  storage.EntityTypeOpponent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("put token: %v", err)
	}

	if err := store.DeleteChapter(ctx, "chapter-1"); err != nil {
		t.Fatalf("delete chapter: %v", err)
	}
	if _, err := store.GetEncounter(ctx, "encounter-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected cascaded encounter delete, got %v", err)
	}
	if _, err := store.GetToken(ctx, "token-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected cascaded token delete, got %v", err)
	}
}

// TestPutChapterValidatesRecord ensures structural validation happens before
// the statement runs.
func TestPutChapterValidatesRecord(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime()

	if err := store.PutChapter(ctx, storage.ChapterRecord{Name: "No ID", CreatedAt: now, UpdatedAt: now}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := store.PutChapter(ctx, storage.ChapterRecord{ID: "chapter-1", CreatedAt: now, UpdatedAt: now}); err == nil {
		t.Fatal("expected error for missing name")
	}
}
