// internal/handlers/game_server.go
package handlers

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biyoo/uno/internal/game"
)

// GameServer holds the per-room session registry plus the live websocket
// connections subscribed to each room's game channel.
type GameServer struct {
	Sessions *game.SessionStore
	Logger   *logrus.Logger

	mu       sync.Mutex
	channels map[uuid.UUID]*roomChannel
}

func NewGameServer(logger *logrus.Logger, sessions *game.SessionStore) *GameServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &GameServer{
		Sessions: sessions,
		Logger:   logger,
		channels: make(map[uuid.UUID]*roomChannel),
	}
}

// channel returns the room's connection channel, creating it on first use.
func (gs *GameServer) channel(roomID uuid.UUID) *roomChannel {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	ch, ok := gs.channels[roomID]
	if !ok {
		ch = &roomChannel{}
		gs.channels[roomID] = ch
	}
	return ch
}

// member is one live connection in a room channel. The same user may hold
// several connections (multiple tabs).
type member struct {
	conn   *websocket.Conn
	userID uuid.UUID
}

// roomChannel tracks the connections subscribed to one room, in join order.
type roomChannel struct {
	mu      sync.Mutex
	members []member
}

func (ch *roomChannel) add(conn *websocket.Conn, userID uuid.UUID) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.members = append(ch.members, member{conn: conn, userID: userID})
}

func (ch *roomChannel) remove(conn *websocket.Conn) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for i, m := range ch.members {
		if m.conn == conn {
			ch.members = append(ch.members[:i], ch.members[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the current membership for lock-free iteration.
func (ch *roomChannel) snapshot() []member {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]member, len(ch.members))
	copy(out, ch.members)
	return out
}

// userIDs returns the distinct connected users in join order.
func (ch *roomChannel) userIDs() []uuid.UUID {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	seen := make(map[uuid.UUID]bool, len(ch.members))
	var ids []uuid.UUID
	for _, m := range ch.members {
		if !seen[m.userID] {
			seen[m.userID] = true
			ids = append(ids, m.userID)
		}
	}
	return ids
}

// userCount returns the number of distinct connected users.
func (ch *roomChannel) userCount() int {
	return len(ch.userIDs())
}
