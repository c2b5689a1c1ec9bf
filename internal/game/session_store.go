// internal/game/session_store.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionConfig carries the collaborators a Session is built with. Zero values
// fall back to sane defaults.
type SessionConfig struct {
	Rules          GameRules
	Stats          StatsRecorder
	Journal        Journal
	Logger         *logrus.Logger
	AcquireTimeout time.Duration
	Rng            *rand.Rand
}

// SessionStore is the per-room session registry. Sessions for different rooms
// are fully independent; the store also tracks which room each user is seated
// in so a player can never sit in two active games at once.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	seats    map[uuid.UUID]uuid.UUID // user ID -> room ID
	cfg      SessionConfig
}

func NewSessionStore(cfg SessionConfig) *SessionStore {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Rules.StartingHandSize == 0 {
		cfg.Rules = DefaultRules()
	}
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		seats:    make(map[uuid.UUID]uuid.UUID),
		cfg:      cfg,
	}
}

// GetOrCreate returns the room's session, creating an idle one on first use.
func (st *SessionStore) GetOrCreate(roomID uuid.UUID) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[roomID]; ok {
		return s
	}
	s := &Session{
		RoomID:         roomID,
		gate:           make(chan struct{}, 1),
		acquireTimeout: st.cfg.AcquireTimeout,
		rules:          st.cfg.Rules,
		store:          st,
		stats:          st.cfg.Stats,
		journal:        st.cfg.Journal,
		rng:            st.cfg.Rng,
		log:            st.cfg.Logger.WithField("room", roomID),
	}
	st.sessions[roomID] = s
	return s
}

// Get returns the room's session if one exists.
func (st *SessionStore) Get(roomID uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[roomID]
	return s, ok
}

// Delete drops the room's session record. Seats are released separately when
// the game inside is discarded.
func (st *SessionStore) Delete(roomID uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, roomID)
}

// claimSeats marks every roster member as seated in the given room. All-or-
// nothing: if any member is seated in a different room the claim fails.
func (st *SessionStore) claimSeats(roomID uuid.UUID, userIDs []uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, uid := range userIDs {
		if other, ok := st.seats[uid]; ok && other != roomID {
			return errf(KindBadRequest, "a player is already seated in another game")
		}
	}
	for _, uid := range userIDs {
		st.seats[uid] = roomID
	}
	return nil
}

// releaseSeats frees every seat held by the given room.
func (st *SessionStore) releaseSeats(roomID uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for uid, rid := range st.seats {
		if rid == roomID {
			delete(st.seats, uid)
		}
	}
}
