// internal/game/view.go
package game

import (
	"github.com/google/uuid"

	"github.com/biyoo/uno/internal/models"
)

// CardView is a card as a recipient sees it. CanPlay is present only on the
// recipient's own hand cards.
type CardView struct {
	ID      int               `json:"id"`
	Color   models.CardColor  `json:"color"`
	Action  models.CardAction `json:"action"`
	CanPlay *bool             `json:"can_play,omitempty"`
}

// UserView is the public identity slice of a seated user.
type UserView struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	CardBackID    int       `json:"card_back_id"`
	EnvironmentID int       `json:"environment_id"`
}

// PlayerView is one seat from the perspective of a requesting user. Hand is
// expanded only for the recipient's own seat; everyone else gets HandCount.
type PlayerView struct {
	User      UserView   `json:"user"`
	Seat      int        `json:"seat"`
	SaidUno   bool       `json:"said_uno"`
	HandCount int        `json:"hand_count"`
	Hand      []CardView `json:"hand,omitempty"`
}

// GameView is the hidden-information projection of the whole game.
type GameView struct {
	ID            uuid.UUID    `json:"id"`
	CurrentCard   CardView     `json:"current_card"`
	Clockwise     bool         `json:"clockwise"`
	CurrentSeat   int          `json:"current_seat"`
	PendingDraw   int          `json:"pending_draw"`
	DrawPileCount int          `json:"draw_pile_count"`
	DiscardCount  int          `json:"discard_count"`
	GameOver      bool         `json:"game_over"`
	Winner        *UserView    `json:"winner,omitempty"`
	Players       []PlayerView `json:"players"`
}

func userView(u *models.User) UserView {
	if u == nil {
		return UserView{}
	}
	return UserView{
		ID:            u.ID,
		Username:      u.Username,
		CardBackID:    u.CardBackID,
		EnvironmentID: u.EnvironmentID,
	}
}

// ViewFor builds the projection for one recipient against the current state.
// Other players' hands and the shared piles collapse to counts; the recipient's
// own hand is expanded and annotated per card with its current legality.
// Callers must hold the session's exclusive scope.
func (g *UnoGame) ViewFor(forUser uuid.UUID) *GameView {
	view := &GameView{
		ID: g.ID,
		CurrentCard: CardView{
			ID:     g.CurrentCard.ID,
			Color:  g.CurrentCard.Color,
			Action: g.CurrentCard.Action,
		},
		Clockwise:     g.Clockwise,
		CurrentSeat:   g.Turn,
		PendingDraw:   g.PendingDraw,
		DrawPileCount: len(g.DrawPile),
		DiscardCount:  len(g.DiscardPile),
		GameOver:      g.GameOver,
	}
	if g.Winner != nil {
		wv := userView(g.Winner.User)
		view.Winner = &wv
	}

	for _, p := range g.Players {
		pv := PlayerView{
			User:      userView(p.User),
			Seat:      p.Seat,
			SaidUno:   p.SaidUno,
			HandCount: len(p.Hand),
		}
		if p.UserID() == forUser {
			pv.Hand = make([]CardView, len(p.Hand))
			for i, c := range p.Hand {
				playable := g.CanPlay(p, c)
				pv.Hand[i] = CardView{
					ID:      c.ID,
					Color:   c.Color,
					Action:  c.Action,
					CanPlay: &playable,
				}
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view
}
