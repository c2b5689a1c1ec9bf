// internal/models/action.go
package models

import "github.com/google/uuid"

// ActionKind enumerates the closed set of inbound game actions. The transport
// layer decodes wire payloads into an Action before anything reaches the engine.
type ActionKind string

const (
	ActionStartGame   ActionKind = "start_game"
	ActionPlayCard    ActionKind = "play_card"
	ActionDrawCard    ActionKind = "draw_card"
	ActionSayUno      ActionKind = "say_uno"
	ActionDenyUno     ActionKind = "deny_uno"
	ActionStopGame    ActionKind = "stop_game"
	ActionRestartGame ActionKind = "restart_game"
)

// Action is a fully decoded player action. Only the fields required by its kind
// are populated:
//
//	start_game:  Roster
//	play_card:   CardID, optionally ChosenColor
//	deny_uno:    TargetID
type Action struct {
	Kind ActionKind

	CardID      int
	ChosenColor CardColor
	TargetID    uuid.UUID
	Roster      []*User
}
