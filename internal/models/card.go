// internal/models/card.go
package models

// CardColor is one of the four play colors, or "wild" for uncolored wildcards.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorYellow CardColor = "yellow"
	ColorGreen  CardColor = "green"
	ColorBlue   CardColor = "blue"
	ColorWild   CardColor = "wild"
)

// PlayColors lists the four choosable colors, in catalog order.
var PlayColors = []CardColor{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// ValidPlayColor reports whether c is one of the four choosable colors.
func ValidPlayColor(c CardColor) bool {
	for _, pc := range PlayColors {
		if c == pc {
			return true
		}
	}
	return false
}

// CardAction is a card's face value: a numeral "0".."9" or one of the action faces.
type CardAction string

const (
	ActionSkip         CardAction = "skip"
	ActionReverse      CardAction = "reverse"
	ActionDrawTwo      CardAction = "+2"
	ActionWild         CardAction = "wild"
	ActionWildDrawFour CardAction = "+4"
)

// Card is one immutable catalog row. Special marks the color-bound wildcard
// variants that exist only as a played wildcard's resolved form and are never
// dealt from the deck.
type Card struct {
	ID      int        `json:"id"`
	Color   CardColor  `json:"color"`
	Action  CardAction `json:"action"`
	Special bool       `json:"special,omitempty"`
}

// IsWildFamily reports whether the card's face is a wild or wild-draw-four,
// regardless of whether a color has been bound to it.
func (c Card) IsWildFamily() bool {
	return c.Action == ActionWild || c.Action == ActionWildDrawFour
}

// DrawAmount is the draw penalty the card stacks: 2, 4, or 0 for non-draw cards.
func (c Card) DrawAmount() int {
	switch c.Action {
	case ActionDrawTwo:
		return 2
	case ActionWildDrawFour:
		return 4
	default:
		return 0
	}
}
