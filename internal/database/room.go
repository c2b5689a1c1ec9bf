// internal/database/room.go
package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/biyoo/uno/internal/models"
)

// GetRoom fetches a room row by ID.
func GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	var r models.Room
	q := `SELECT id, name, host_user_id, max_players FROM rooms WHERE id=$1`
	err := DB.QueryRow(ctx, q, roomID).Scan(&r.ID, &r.Name, &r.HostUserID, &r.MaxPlayers)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// IsRoomMember reports whether the user currently belongs to the room. Room
// membership itself is managed by the room CRUD layer; the game server only
// ever reads it to gate the websocket.
func IsRoomMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id=$1 AND user_id=$2)`
	if err := DB.QueryRow(ctx, q, roomID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
