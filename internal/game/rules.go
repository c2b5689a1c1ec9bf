// internal/game/rules.go
package game

import (
	"github.com/google/uuid"

	"github.com/biyoo/uno/internal/models"
)

// GameRules defines the per-session configuration a game starts with.
type GameRules struct {
	// StartingHandSize is the number of cards dealt to each seat.
	StartingHandSize int `json:"startingHandSize"`

	// ReshuffleOnEmpty controls what happens when a draw hits an empty pile:
	// when set, the discard pile is shuffled back into the draw pile first;
	// when unset, the draw is a silent no-op.
	ReshuffleOnEmpty bool `json:"reshuffleOnEmpty"`
}

// DefaultRules returns the standard seven-card, no-reshuffle configuration.
func DefaultRules() GameRules {
	return GameRules{StartingHandSize: 7}
}

// Validate checks the roster against the rules: at least two distinct players,
// a positive hand size, and a deck large enough to deal every hand plus the
// first flipped card.
func (r GameRules) Validate(roster []*models.User, deckSize int) error {
	if r.StartingHandSize < 1 {
		return errf(KindBadRequest, "cannot start with less than one card per hand")
	}
	if len(roster) < 2 {
		return errf(KindBadRequest, "not enough players")
	}
	seen := make(map[uuid.UUID]bool, len(roster))
	for _, u := range roster {
		if u == nil || u.ID == uuid.Nil {
			return errf(KindBadRequest, "roster contains an unknown player")
		}
		if seen[u.ID] {
			return errf(KindBadRequest, "duplicate player %s", u.Username)
		}
		seen[u.ID] = true
	}
	if deckSize < len(roster)*r.StartingHandSize+1 {
		return errf(KindBadRequest, "not enough cards for %d players", len(roster))
	}
	return nil
}
