// internal/game/session.go
package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biyoo/uno/internal/cache"
	"github.com/biyoo/uno/internal/models"
)

// StatsRecorder is the external stats ledger. RecordResult is best-effort: a
// failure never rolls back the committed game result.
type StatsRecorder interface {
	RecordResult(ctx context.Context, winnerID uuid.UUID, participantIDs []uuid.UUID) error
}

// Journal receives an append-only record of every applied action, e.g. the
// Redis queue drained by the statsd archiver.
type Journal interface {
	Record(ctx context.Context, rec cache.GameActionRecord) error
}

// DefaultAcquireTimeout bounds how long a caller waits for a session's
// exclusive scope before the action is rejected as transiently busy.
const DefaultAcquireTimeout = 2 * time.Second

// Session owns the single authoritative game for one room and serializes every
// mutating call against it. Exactly one action is in flight at any time; the
// projection for broadcast is built inside the same exclusive scope, so it
// always observes a fully-resolved state.
type Session struct {
	RoomID uuid.UUID

	gate           chan struct{}
	acquireTimeout time.Duration

	game   *UnoGame
	roster []*models.User
	rules  GameRules

	resultRecorded bool
	actionIndex    int

	store   *SessionStore
	stats   StatsRecorder
	journal Journal
	rng     *rand.Rand
	log     *logrus.Entry
}

// Update is the broadcastable output of a successful mutation: one projection
// per requested recipient. Stopped marks a discarded session (clients receive
// a null game).
type Update struct {
	Stopped bool
	Views   map[uuid.UUID]*GameView
}

// acquire claims the session's exclusive scope, waiting at most the configured
// timeout. The returned release must be called exactly once.
func (s *Session) acquire(ctx context.Context) (release func(), err error) {
	timer := time.NewTimer(s.acquireTimeout)
	defer timer.Stop()
	select {
	case s.gate <- struct{}{}:
		return func() { <-s.gate }, nil
	case <-timer.C:
		return nil, errf(KindBusy, "the game is busy, try again")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatch applies one decoded player action and, on success, projects the new
// state for every recipient. On failure nothing is mutated and the error is for
// the acting connection only.
func (s *Session) Dispatch(ctx context.Context, actorID uuid.UUID, act models.Action, recipients []uuid.UUID) (*Update, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stopped := false
	switch act.Kind {
	case models.ActionStartGame:
		err = s.start(act.Roster)
	case models.ActionPlayCard:
		err = s.withGame(func(g *UnoGame) error { return g.Play(actorID, act.CardID, act.ChosenColor) })
	case models.ActionDrawCard:
		err = s.withGame(func(g *UnoGame) error { return g.Draw(actorID) })
	case models.ActionSayUno:
		err = s.withGame(func(g *UnoGame) error { return g.SayUno(actorID) })
	case models.ActionDenyUno:
		err = s.withGame(func(g *UnoGame) error { return g.DenyUno(actorID, act.TargetID) })
	case models.ActionStopGame:
		err = s.stop()
		stopped = err == nil
	case models.ActionRestartGame:
		err = s.restart()
	default:
		err = errf(KindBadRequest, "unknown action %q", act.Kind)
	}
	if err != nil {
		return nil, err
	}

	s.logApplied(actorID, act)

	if s.game != nil {
		if cerr := s.game.VerifyConservation(); cerr != nil {
			// A violated zone invariant means corrupt state; discard the
			// session rather than continue from it.
			s.log.WithError(cerr).Error("card conservation violated, discarding session")
			s.discardLocked()
			return nil, errf(KindInternal, "internal game state error, session discarded")
		}
		if s.game.GameOver && !s.resultRecorded {
			s.resultRecorded = true
			s.recordResult()
		}
	}

	if stopped {
		return &Update{Stopped: true}, nil
	}
	return &Update{Views: s.viewsLocked(recipients)}, nil
}

// View builds the projection for a single recipient, e.g. for state-on-connect.
// Returns a nil view when no game is running.
func (s *Session) View(ctx context.Context, forUser uuid.UUID) (*GameView, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	if s.game == nil {
		return nil, nil
	}
	return s.game.ViewFor(forUser), nil
}

// Started reports whether a game is currently running or finished-but-kept.
func (s *Session) Started(ctx context.Context) (bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	return s.game != nil, nil
}

func (s *Session) withGame(fn func(*UnoGame) error) error {
	if s.game == nil {
		return errf(KindNotStarted, "no game has been started yet")
	}
	return fn(s.game)
}

// start validates and seats the roster, then deals a fresh game.
func (s *Session) start(roster []*models.User) error {
	if s.game != nil {
		return errf(KindAlreadyStarted, "game has already been started")
	}
	ids := make([]uuid.UUID, 0, len(roster))
	for _, u := range roster {
		if u != nil {
			ids = append(ids, u.ID)
		}
	}
	if err := s.store.claimSeats(s.RoomID, ids); err != nil {
		return err
	}
	g := NewUnoGame(s.RoomID, s.rules, s.rng, s.log)
	if err := g.Start(roster); err != nil {
		s.store.releaseSeats(s.RoomID)
		return err
	}
	s.game = g
	s.roster = roster
	s.resultRecorded = false
	return nil
}

// stop discards the game entirely; no winner is recorded.
func (s *Session) stop() error {
	if s.game == nil {
		return errf(KindNotStarted, "no game has been started yet")
	}
	s.discardLocked()
	return nil
}

// restart deals a new game for the same roster. Only legal once the previous
// game is over.
func (s *Session) restart() error {
	if s.game == nil {
		return errf(KindNotStarted, "no game has been started yet")
	}
	if !s.game.GameOver {
		return errf(KindBadRequest, "the game is not over")
	}
	roster := s.roster
	s.discardLocked()
	return s.start(roster)
}

// discardLocked drops the game and frees the roster's seats. Callers hold the scope.
func (s *Session) discardLocked() {
	s.game = nil
	s.store.releaseSeats(s.RoomID)
}

// viewsLocked projects the current state for each recipient. Recipients outside
// the roster still get a view; it simply reveals no hand.
func (s *Session) viewsLocked(recipients []uuid.UUID) map[uuid.UUID]*GameView {
	views := make(map[uuid.UUID]*GameView, len(recipients))
	for _, uid := range recipients {
		if s.game != nil {
			views[uid] = s.game.ViewFor(uid)
		} else {
			views[uid] = nil
		}
	}
	return views
}

// recordResult pushes the finished game's outcome to the stats ledger without
// blocking the exclusive scope; errors are logged and never undo the result.
func (s *Session) recordResult() {
	if s.stats == nil || s.game == nil || s.game.Winner == nil {
		return
	}
	winnerID := s.game.Winner.UserID()
	participants := make([]uuid.UUID, 0, len(s.game.Players))
	for _, p := range s.game.Players {
		participants = append(participants, p.UserID())
	}
	log := s.log
	go func(stats StatsRecorder) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stats.RecordResult(ctx, winnerID, participants); err != nil {
			log.WithError(err).WithField("winner", winnerID).Warn("failed to record game result")
		}
	}(s.stats)
}

// logApplied enqueues a journal record for a successfully applied action.
// Publishing happens off the hot path with a short timeout.
func (s *Session) logApplied(actorID uuid.UUID, act models.Action) {
	if s.journal == nil {
		return
	}
	s.actionIndex++
	rec := cache.GameActionRecord{
		RoomID:      s.RoomID,
		ActionIndex: s.actionIndex,
		ActorUserID: actorID,
		ActionType:  string(act.Kind),
		Timestamp:   time.Now().UnixMilli(),
	}
	if s.game != nil {
		rec.GameID = s.game.ID
	}
	if act.Kind == models.ActionPlayCard {
		rec.ActionPayload = map[string]interface{}{"card_id": act.CardID, "color": act.ChosenColor}
	} else if act.Kind == models.ActionDenyUno {
		rec.ActionPayload = map[string]interface{}{"target_id": act.TargetID.String()}
	}
	go func(j Journal) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := j.Record(ctx, rec); err != nil {
			s.log.WithError(err).Debug("failed to journal game action")
		}
	}(s.journal)
}
