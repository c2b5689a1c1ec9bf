// internal/game/game.go
package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biyoo/uno/internal/models"
)

// UnoGame holds the entire authoritative state for one game session in memory.
// It performs no locking of its own: the owning Session serializes every call,
// so all methods assume exclusive access.
type UnoGame struct {
	ID     uuid.UUID
	RoomID uuid.UUID
	Rules  GameRules

	Players     []*models.Player // indexed by seat
	DrawPile    []models.Card
	DiscardPile []models.Card
	CurrentCard models.Card

	Clockwise   bool // true => the turn pointer increases
	Turn        int  // seat of the player to act
	PendingDraw int  // accumulated +2/+4 penalty not yet resolved
	GameOver    bool
	Winner      *models.Player

	// initialCounts is the card-ID multiset of the full starting deck, kept to
	// verify zone conservation after mutations.
	initialCounts map[int]int

	rng *rand.Rand
	log *logrus.Entry
}

// NewUnoGame builds an empty game for a room. A nil rng gets a time-seeded
// source; tests pass a fixed seed for deterministic decks.
func NewUnoGame(roomID uuid.UUID, rules GameRules, rng *rand.Rand, log *logrus.Entry) *UnoGame {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	id, _ := uuid.NewRandom()
	return &UnoGame{
		ID:     id,
		RoomID: roomID,
		Rules:  rules,
		rng:    rng,
		log:    log.WithField("game", id),
	}
}

// Start deals the shuffled standard deck to the roster, seats players in input
// order, picks a uniformly random starting turn, and flips the first card.
func (g *UnoGame) Start(roster []*models.User) error {
	deck := BuildStandardDeck()
	if err := g.Rules.Validate(roster, len(deck)); err != nil {
		return err
	}
	ShuffleDeck(deck, g.rng)

	g.initialCounts = make(map[int]int, len(deck))
	for _, c := range deck {
		g.initialCounts[c.ID]++
	}

	g.Players = make([]*models.Player, 0, len(roster))
	dealt := 0
	for seat, u := range roster {
		hand := make([]models.Card, g.Rules.StartingHandSize)
		copy(hand, deck[dealt:dealt+g.Rules.StartingHandSize])
		dealt += g.Rules.StartingHandSize
		g.Players = append(g.Players, &models.Player{User: u, Seat: seat, Hand: hand})
	}

	g.CurrentCard = deck[dealt]
	g.DrawPile = append([]models.Card(nil), deck[dealt+1:]...)
	g.DiscardPile = nil
	g.Clockwise = false
	g.Turn = g.rng.Intn(len(g.Players))
	g.PendingDraw = 0
	g.GameOver = false
	g.Winner = nil

	g.log.WithFields(logrus.Fields{
		"players":   len(g.Players),
		"firstTurn": g.Turn,
	}).Info("game started")
	return nil
}

// PlayerFor returns the seat owned by the given user, or nil.
func (g *UnoGame) PlayerFor(userID uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.UserID() == userID {
			return p
		}
	}
	return nil
}

// CanPlay is the pure legality check: it never mutates and never errors.
func (g *UnoGame) CanPlay(p *models.Player, card models.Card) bool {
	if g.GameOver {
		return false
	}
	if p == nil || p.Seat != g.Turn {
		return false
	}
	if !p.HasCard(card.ID) {
		return false
	}
	if g.PendingDraw > 0 {
		// Only a stacking answer is legal: a skip matching the current card's
		// color (cancels the stack), or a draw card at least as heavy as the
		// pending one (+2 < +4).
		if card.Action == models.ActionSkip && card.Color == g.CurrentCard.Color {
			return true
		}
		return card.DrawAmount() > 0 && card.DrawAmount() >= g.CurrentCard.DrawAmount()
	}
	return card.Color == g.CurrentCard.Color ||
		card.Color == models.ColorWild ||
		card.Action == g.CurrentCard.Action
}

// Play resolves one card play for the user: legality check, zone moves, side
// effects, turn advancement, and win detection. Either the whole resolution
// applies or none of it does.
func (g *UnoGame) Play(userID uuid.UUID, cardID int, chosenColor models.CardColor) error {
	if g.GameOver {
		return errf(KindNotStarted, "the game is over")
	}
	p := g.PlayerFor(userID)
	if p == nil {
		return errf(KindNotStarted, "you are not seated in this game")
	}
	if p.Seat != g.Turn {
		return errf(KindNotYourTurn, "it's not your turn")
	}
	card, ok := CardByID(cardID)
	if !ok || card.Special {
		return errf(KindIllegalMove, "unknown card")
	}
	if !p.HasCard(card.ID) {
		return errf(KindIllegalMove, "you don't have this card")
	}
	if card.IsWildFamily() && !models.ValidPlayColor(chosenColor) {
		return errf(KindMissingColor, "a color must be chosen for this card")
	}
	if !g.CanPlay(p, card) {
		return errf(KindIllegalMove, "you can't play this card")
	}

	// All checks passed; mutate. The previous current card moves to the discard
	// pile in its catalog-canonical form, never as a color-bound wild variant.
	g.DiscardPile = append(g.DiscardPile, g.canonicalCurrent())
	g.removeFromHand(p, card.ID)
	if card.IsWildFamily() {
		g.CurrentCard = cardFor(chosenColor, card.Action)
	} else {
		g.CurrentCard = card
	}

	g.applyCardEffect(card)
	g.finishTurn(p)

	g.log.WithFields(logrus.Fields{
		"user":    userID,
		"card":    card.ID,
		"action":  card.Action,
		"pending": g.PendingDraw,
	}).Debug("card played")
	return nil
}

// applyCardEffect applies the played card's side effect to the game state.
func (g *UnoGame) applyCardEffect(card models.Card) {
	switch card.Action {
	case models.ActionReverse:
		g.Clockwise = !g.Clockwise
	case models.ActionDrawTwo:
		g.PendingDraw += 2
	case models.ActionWildDrawFour:
		g.PendingDraw += 4
	case models.ActionSkip:
		// On a clean board a skip jumps one extra seat; played onto a pending
		// stack it cancels the accumulated penalty instead.
		if g.PendingDraw == 0 {
			g.advanceTurn()
		} else {
			g.PendingDraw = 0
		}
	}
}

// Draw resolves the acting player's draw: the full pending penalty if one is
// stacked, otherwise a single card. Drawing consumes the turn.
func (g *UnoGame) Draw(userID uuid.UUID) error {
	if g.GameOver {
		return errf(KindNotStarted, "the game is over")
	}
	p := g.PlayerFor(userID)
	if p == nil {
		return errf(KindNotStarted, "you are not seated in this game")
	}
	if p.Seat != g.Turn {
		return errf(KindNotYourTurn, "it's not your turn")
	}

	if g.PendingDraw > 0 {
		for i := 0; i < g.PendingDraw; i++ {
			g.drawOne(p)
		}
		g.PendingDraw = 0
	} else {
		g.drawOne(p)
	}
	p.SaidUno = false
	g.finishTurn(p)
	return nil
}

// drawOne moves one uniformly random card from the draw pile into the player's
// hand. An empty pile is a silent no-op unless the rules ask for a reshuffle of
// the discard pile first.
func (g *UnoGame) drawOne(p *models.Player) {
	if len(g.DrawPile) == 0 {
		if !g.Rules.ReshuffleOnEmpty || len(g.DiscardPile) == 0 {
			return
		}
		g.DrawPile = append(g.DrawPile, g.DiscardPile...)
		g.DiscardPile = nil
		ShuffleDeck(g.DrawPile, g.rng)
		g.log.WithField("size", len(g.DrawPile)).Info("reshuffled discard pile into draw pile")
	}
	idx := g.rng.Intn(len(g.DrawPile))
	card := g.DrawPile[idx]
	g.DrawPile = append(g.DrawPile[:idx], g.DrawPile[idx+1:]...)
	p.Hand = append(p.Hand, card)
	p.SaidUno = false
}

// SayUno declares the uno state: legal with one card in hand, or with two cards
// on the declarer's own turn (announcing before playing down to one).
func (g *UnoGame) SayUno(userID uuid.UUID) error {
	if g.GameOver {
		return errf(KindNotStarted, "the game is over")
	}
	p := g.PlayerFor(userID)
	if p == nil {
		return errf(KindNotStarted, "you are not seated in this game")
	}
	n := len(p.Hand)
	if n == 1 || (n == 2 && p.Seat == g.Turn) {
		p.SaidUno = true
		return nil
	}
	return errf(KindIllegalDeclaration, "you can't say uno")
}

// DenyUno challenges a player holding one undeclared card: the target draws two
// cards and the turn advances.
func (g *UnoGame) DenyUno(accuserID, targetID uuid.UUID) error {
	if g.GameOver {
		return errf(KindNotStarted, "the game is over")
	}
	if g.PlayerFor(accuserID) == nil {
		return errf(KindNotStarted, "you are not seated in this game")
	}
	target := g.PlayerFor(targetID)
	if target == nil {
		return errf(KindIllegalChallenge, "target is not in this game")
	}
	if len(target.Hand) != 1 || target.SaidUno {
		return errf(KindIllegalChallenge, "you can't deny uno")
	}
	g.drawOne(target)
	g.drawOne(target)
	g.finishTurn(g.Players[g.Turn])
	return nil
}

// finishTurn runs win detection for the player who just acted and otherwise
// advances the turn. A win freezes the game: no further mutation occurs.
func (g *UnoGame) finishTurn(acted *models.Player) {
	if len(acted.Hand) == 0 {
		g.GameOver = true
		g.Winner = acted
		g.log.WithField("winner", acted.UserID()).Info("game over")
		return
	}
	g.advanceTurn()
}

// advanceTurn moves the turn pointer one seat in the current direction.
func (g *UnoGame) advanceTurn() {
	n := len(g.Players)
	if g.Clockwise {
		g.Turn = (g.Turn + 1) % n
	} else {
		g.Turn = (g.Turn - 1 + n) % n
	}
}

// removeFromHand takes the card with the given catalog ID out of the player's
// hand. Callers guarantee presence; the matching add to another zone happens in
// the same mutation.
func (g *UnoGame) removeFromHand(p *models.Player, cardID int) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return
		}
	}
}

// canonicalCurrent returns the current card as its catalog-canonical entry:
// color-bound wild variants map back to the wild-colored card that was dealt.
func (g *UnoGame) canonicalCurrent() models.Card {
	if g.CurrentCard.Special && g.CurrentCard.IsWildFamily() {
		return cardFor(models.ColorWild, g.CurrentCard.Action)
	}
	return g.CurrentCard
}

// VerifyConservation checks the zone invariant: the multiset of all hands, the
// discard pile, the draw pile, and the current card equals the starting deck.
// A violation is an internal-consistency fault, never a rules outcome.
func (g *UnoGame) VerifyConservation() error {
	if g.initialCounts == nil {
		return nil
	}
	counts := make(map[int]int, len(g.initialCounts))
	for _, p := range g.Players {
		for _, c := range p.Hand {
			counts[c.ID]++
		}
	}
	for _, c := range g.DiscardPile {
		counts[c.ID]++
	}
	for _, c := range g.DrawPile {
		counts[c.ID]++
	}
	counts[g.canonicalCurrent().ID]++

	for id, want := range g.initialCounts {
		if counts[id] != want {
			return errf(KindInternal, "card %d appears %d times, expected %d", id, counts[id], want)
		}
	}
	for id, got := range counts {
		if g.initialCounts[id] == 0 {
			return errf(KindInternal, "card %d appears %d times, expected 0", id, got)
		}
	}
	return nil
}
