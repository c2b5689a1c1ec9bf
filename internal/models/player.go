package models

import "github.com/google/uuid"

// Player is one seat in a running game. Seat is the fixed turn-order index
// assigned at game start; Hand is an unordered set of catalog cards.
type Player struct {
	User *User `json:"-"`

	Seat    int    `json:"seat"`
	Hand    []Card `json:"hand"`
	SaidUno bool   `json:"said_uno"`
}

// UserID returns the owning user's ID, or uuid.Nil if the seat has no user.
func (p *Player) UserID() uuid.UUID {
	if p.User == nil {
		return uuid.Nil
	}
	return p.User.ID
}

// HasCard reports whether the player's hand contains the card with the given catalog ID.
func (p *Player) HasCard(cardID int) bool {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return true
		}
	}
	return false
}
