// internal/models/room.go
package models

import "github.com/google/uuid"

// Room represents a row in the rooms table. Membership and lifecycle are managed
// by the room CRUD layer; the game engine only ever checks membership.
type Room struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	HostUserID uuid.UUID `json:"host_user_id"`
	MaxPlayers int       `json:"max_players"`
}
