// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biyoo/uno/internal/auth"
	"github.com/biyoo/uno/internal/database"
	"github.com/biyoo/uno/internal/game"
	"github.com/biyoo/uno/internal/models"
)

// GameMessage is the structure of incoming WebSocket messages on a room channel.
type GameMessage struct {
	Type string `json:"type"`

	// CardID and Color accompany play_card. Color is only required when the
	// played card is a wild.
	CardID *int   `json:"card_id,omitempty"`
	Color  string `json:"color,omitempty"`

	// TargetID identifies the accused player for deny_uno.
	TargetID string `json:"target_id,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a room's game
// channel. It authenticates the user, verifies room membership, registers the
// connection, pushes the current state, and runs the read loop until the
// client disconnects.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract room ID from URL path: /game/ws/{room_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing room_id in path (/game/ws/{room_id})", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid room_id format", http.StatusBadRequest)
			return
		}

		if _, err := database.GetRoom(r.Context(), roomID); err != nil {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		token := extractToken(r)
		if token == "" {
			http.Error(w, "Missing auth token", http.StatusUnauthorized)
			return
		}
		sub, err := auth.AuthenticateJWT(token)
		if err != nil {
			http.Error(w, "Invalid auth token", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			http.Error(w, "Invalid auth token subject", http.StatusUnauthorized)
			return
		}

		isMember, err := database.IsRoomMember(r.Context(), roomID, userID)
		if err != nil {
			logger.Warnf("Room membership check failed for user %s in room %s: %v", userID, roomID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !isMember {
			http.Error(w, "You are not a member of this room", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for room %s connected with invalid subprotocol: %s", roomID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		logger.Infof("User %s connected to room %s from %s", userID, roomID, r.RemoteAddr)

		ch := gs.channel(roomID)
		ch.add(c, userID)
		defer func() {
			ch.remove(c)
			gs.broadcastPlayerCount(ch, roomID)
		}()
		gs.broadcastPlayerCount(ch, roomID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		session := gs.Sessions.GetOrCreate(roomID)

		// Push the current game state so reconnecting clients catch up.
		if view, err := session.View(ctx, userID); err == nil && view != nil {
			sendWsMessage(ctx, c, map[string]interface{}{"type": "game_state", "game": view})
		}

		readGameMessages(ctx, c, ch, session, roomID, userID, logger)

		logger.Infof("User %s read loop exited for room %s", userID, roomID)
	}
}

// broadcastPlayerCount sends the distinct connected user count to every
// connection in the channel.
func (gs *GameServer) broadcastPlayerCount(ch *roomChannel, roomID uuid.UUID) {
	count := ch.userCount()
	msg := map[string]interface{}{"type": "player_count", "count": count}
	for _, m := range ch.snapshot() {
		sendWsMessage(context.Background(), m.conn, msg)
	}
	gs.Logger.Debugf("Room %s now has %d connected users", roomID, count)
}

// readGameMessages reads messages from one client connection, decodes them
// into actions, dispatches them to the room session, and fans the resulting
// per-recipient views back out to the channel. Failures are reported only to
// the acting connection.
func readGameMessages(ctx context.Context, c *websocket.Conn, ch *roomChannel, session *game.Session, roomID, userID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for user %s in room %s", userID, roomID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for user %s in room %s", userID, roomID)
			} else {
				logger.Warnf("Error reading from WebSocket for user %s in room %s: %v (Status: %d)", userID, roomID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from user %s in room %s. Ignoring.", msgType, userID, roomID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from user %s in room %s: %v. Data: %s", userID, roomID, err, string(data))
			sendWsError(ctx, c, game.KindBadRequest, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' from user %s in room %s", msg.Type, userID, roomID)

		if msg.Type == "ping" {
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})
			continue
		}

		act, err := decodeAction(ctx, ch, msg)
		if err != nil {
			sendWsError(ctx, c, game.KindOf(err), err.Error())
			continue
		}

		update, err := session.Dispatch(ctx, userID, act, ch.userIDs())
		if err != nil {
			kind := game.KindOf(err)
			if kind == game.KindBusy {
				logger.Warnf("Session for room %s busy, rejecting '%s' from user %s", roomID, msg.Type, userID)
			}
			sendWsError(ctx, c, kind, err.Error())
			continue
		}

		fanOutUpdate(ch, update)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// decodeAction translates a wire message into a fully decoded Action,
// resolving the start_game roster from the currently connected users.
func decodeAction(ctx context.Context, ch *roomChannel, msg GameMessage) (models.Action, error) {
	switch msg.Type {
	case "start_game":
		roster := make([]*models.User, 0, len(ch.userIDs()))
		for _, id := range ch.userIDs() {
			u, err := database.GetUserByID(ctx, id)
			if err != nil {
				return models.Action{}, fmt.Errorf("resolve roster user %s: %w", id, err)
			}
			roster = append(roster, u)
		}
		return models.Action{Kind: models.ActionStartGame, Roster: roster}, nil

	case "play_card":
		if msg.CardID == nil {
			return models.Action{}, game.NewError(game.KindBadRequest, "play_card requires card_id")
		}
		return models.Action{
			Kind:        models.ActionPlayCard,
			CardID:      *msg.CardID,
			ChosenColor: models.CardColor(msg.Color),
		}, nil

	case "draw_card":
		return models.Action{Kind: models.ActionDrawCard}, nil

	case "say_uno":
		return models.Action{Kind: models.ActionSayUno}, nil

	case "deny_uno":
		target, err := uuid.Parse(msg.TargetID)
		if err != nil {
			return models.Action{}, game.NewError(game.KindBadRequest, "deny_uno requires a valid target_id")
		}
		return models.Action{Kind: models.ActionDenyUno, TargetID: target}, nil

	case "stop_game":
		return models.Action{Kind: models.ActionStopGame}, nil

	case "restart_game":
		return models.Action{Kind: models.ActionRestartGame}, nil

	default:
		return models.Action{}, game.NewError(game.KindBadRequest, fmt.Sprintf("unknown action type: %s", msg.Type))
	}
}

// fanOutUpdate delivers the post-action state to every connection in the
// channel. Each connection receives the projection built for its user, so a
// player never sees another player's hand.
func fanOutUpdate(ch *roomChannel, update *game.Update) {
	for _, m := range ch.snapshot() {
		payload := map[string]interface{}{"type": "game_state"}
		if update.Stopped {
			payload["game"] = nil
		} else {
			view, ok := update.Views[m.userID]
			if !ok {
				continue
			}
			payload["game"] = view
		}
		sendWsMessage(context.Background(), m.conn, payload)
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
// Includes logging for errors and uses a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		} else if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		}
		// Let the read loop handle connection closure detection.
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, kind game.ErrorKind, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"kind":    kind,
		"message": errorMsg,
	})
}
