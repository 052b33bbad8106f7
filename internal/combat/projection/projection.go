// Package projection assembles persisted combat rows into a single
// consistent snapshot for consumers. It never mutates engine state.
package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/torchlight/internal/combat/domain"
	"github.com/louisbranch/torchlight/internal/storage"
)

// Projector is the read side of the combat engine.
type Projector struct {
	store storage.CombatStore
}

// New creates a projector over the combat store.
func New(store storage.CombatStore) *Projector {
	return &Projector{store: store}
}

// GetFullState returns the full state of the chapter's running combat:
// session row, participants in turn order, and all effects. A chapter with
// no running combat returns (nil, nil) — idle is the normal state, not an
// error.
func (p *Projector) GetFullState(ctx context.Context, chapterID string) (*domain.FullCombatState, error) {
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return nil, domain.ErrEmptyChapterID
	}

	session, err := p.store.GetActiveCombatSession(ctx, chapterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load combat session: %w", err)
	}

	participants, err := p.store.ListParticipants(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	effects, err := p.store.ListEffects(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load effects: %w", err)
	}

	return &domain.FullCombatState{
		Session:      session,
		Participants: participants,
		Effects:      effects,
	}, nil
}
