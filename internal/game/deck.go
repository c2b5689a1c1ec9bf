// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/biyoo/uno/internal/models"
)

// The card catalog is a fixed, immutable table built once at package load.
// A game never creates or destroys cards; it only references catalog rows by ID.
var (
	catalogByID   map[int]models.Card
	catalogByFace map[faceKey]models.Card
	deckTemplate  []models.Card
)

type faceKey struct {
	color  models.CardColor
	action models.CardAction
}

var numerals = []models.CardAction{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

func init() {
	catalogByID = make(map[int]models.Card)
	catalogByFace = make(map[faceKey]models.Card)

	nextID := 1
	add := func(color models.CardColor, action models.CardAction, special bool) models.Card {
		c := models.Card{ID: nextID, Color: color, Action: action, Special: special}
		nextID++
		catalogByID[c.ID] = c
		catalogByFace[faceKey{color, action}] = c
		return c
	}

	for _, color := range models.PlayColors {
		for _, n := range numerals {
			add(color, n, false)
		}
		add(color, models.ActionSkip, false)
		add(color, models.ActionReverse, false)
		add(color, models.ActionDrawTwo, false)

		// Color-bound wildcard variants. Never dealt; a played wildcard becomes
		// one of these once its color is chosen.
		add(color, models.ActionWild, true)
		add(color, models.ActionWildDrawFour, true)
	}
	add(models.ColorWild, models.ActionWild, false)
	add(models.ColorWild, models.ActionWildDrawFour, false)

	buildDeckTemplate()
}

// buildDeckTemplate assembles the standard 108-card deck contents: per color one
// "0", two of each numeral 1-9, two skips, two reverses, two draw-twos, plus
// four wilds and four wild-draw-fours.
func buildDeckTemplate() {
	for _, color := range models.PlayColors {
		deckTemplate = append(deckTemplate, cardFor(color, "0"))
		for _, n := range numerals[1:] {
			c := cardFor(color, n)
			deckTemplate = append(deckTemplate, c, c)
		}
		for _, a := range []models.CardAction{models.ActionSkip, models.ActionReverse, models.ActionDrawTwo} {
			c := cardFor(color, a)
			deckTemplate = append(deckTemplate, c, c)
		}
	}
	for i := 0; i < 4; i++ {
		deckTemplate = append(deckTemplate, cardFor(models.ColorWild, models.ActionWild))
		deckTemplate = append(deckTemplate, cardFor(models.ColorWild, models.ActionWildDrawFour))
	}
}

// CardByID looks up a catalog card by its ID.
func CardByID(id int) (models.Card, bool) {
	c, ok := catalogByID[id]
	return c, ok
}

// cardFor returns the catalog entry for a (color, action) pair. Panics on faces
// that do not exist in the catalog; callers only pass faces from the closed sets.
func cardFor(color models.CardColor, action models.CardAction) models.Card {
	c, ok := catalogByFace[faceKey{color, action}]
	if !ok {
		panic("uno: no catalog card for " + string(color) + " " + string(action))
	}
	return c
}

// BuildStandardDeck returns a fresh, unshuffled copy of the standard deck.
// Callers shuffle with ShuffleDeck.
func BuildStandardDeck() []models.Card {
	deck := make([]models.Card, len(deckTemplate))
	copy(deck, deckTemplate)
	return deck
}

// ShuffleDeck permutes the deck in place with a uniformly random permutation.
// Production callers pass a time-seeded source; tests inject a fixed seed.
func ShuffleDeck(deck []models.Card, r *rand.Rand) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
