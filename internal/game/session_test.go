// internal/game/session_test.go
package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyoo/uno/internal/cache"
	"github.com/biyoo/uno/internal/models"
)

// stubStats collects RecordResult calls so tests can wait on them.
type stubStats struct {
	calls chan stubStatsCall
}

type stubStatsCall struct {
	winner       uuid.UUID
	participants []uuid.UUID
}

func newStubStats() *stubStats {
	return &stubStats{calls: make(chan stubStatsCall, 4)}
}

func (s *stubStats) RecordResult(ctx context.Context, winnerID uuid.UUID, participantIDs []uuid.UUID) error {
	s.calls <- stubStatsCall{winner: winnerID, participants: participantIDs}
	return nil
}

// stubJournal collects journaled action records in memory.
type stubJournal struct {
	mu   sync.Mutex
	recs []cache.GameActionRecord
}

func (j *stubJournal) Record(ctx context.Context, rec cache.GameActionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

func (j *stubJournal) records() []cache.GameActionRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]cache.GameActionRecord, len(j.recs))
	copy(out, j.recs)
	return out
}

func newTestStore(stats StatsRecorder, journal Journal) *SessionStore {
	return NewSessionStore(SessionConfig{
		Stats:          stats,
		Journal:        journal,
		AcquireTimeout: 200 * time.Millisecond,
		Rng:            rand.New(rand.NewSource(1)),
	})
}

func userIDs(users []*models.User) []uuid.UUID {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestSessionStartAndProjection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	s := store.GetOrCreate(uuid.New())
	users := testUsers(2)
	recipients := userIDs(users)

	started, err := s.Started(ctx)
	require.NoError(t, err)
	assert.False(t, started)

	up, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)
	require.Len(t, up.Views, 2)

	// Each recipient sees only their own hand expanded.
	for i, u := range users {
		view := up.Views[u.ID]
		require.NotNil(t, view)
		for _, pv := range view.Players {
			if pv.User.ID == u.ID {
				assert.Len(t, pv.Hand, 7, "recipient %d sees own hand", i)
			} else {
				assert.Nil(t, pv.Hand, "recipient %d must not see other hands", i)
			}
		}
	}

	// A second start on the same session is rejected.
	_, err = s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	assert.Equal(t, KindAlreadyStarted, KindOf(err))

	started, err = s.Started(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	view, err := s.View(ctx, users[1].ID)
	require.NoError(t, err)
	require.NotNil(t, view)
}

func TestSessionSeatsAreExclusiveAcrossRooms(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	users := testUsers(2)
	recipients := userIDs(users)

	a := store.GetOrCreate(uuid.New())
	_, err := a.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)

	// The same roster cannot be seated in a second room while room A runs.
	b := store.GetOrCreate(uuid.New())
	_, err = b.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	assert.Equal(t, KindBadRequest, KindOf(err))

	// Stopping room A frees the seats.
	up, err := a.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStopGame}, recipients)
	require.NoError(t, err)
	assert.True(t, up.Stopped)

	_, err = b.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)
}

func TestSessionBusyTimeout(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	s := store.GetOrCreate(uuid.New())
	users := testUsers(2)

	// Hold the exclusive scope so every dispatch times out.
	s.gate <- struct{}{}
	defer func() { <-s.gate }()

	_, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionDrawCard}, nil)
	assert.Equal(t, KindBusy, KindOf(err))

	_, err = s.View(ctx, users[0].ID)
	assert.Equal(t, KindBusy, KindOf(err))
}

func TestSessionActionsBeforeStart(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	s := store.GetOrCreate(uuid.New())
	u := uuid.New()

	for _, kind := range []models.ActionKind{
		models.ActionPlayCard,
		models.ActionDrawCard,
		models.ActionSayUno,
		models.ActionDenyUno,
		models.ActionStopGame,
		models.ActionRestartGame,
	} {
		_, err := s.Dispatch(ctx, u, models.Action{Kind: kind}, nil)
		assert.Equal(t, KindNotStarted, KindOf(err), "action %s", kind)
	}

	view, err := s.View(ctx, u)
	require.NoError(t, err)
	assert.Nil(t, view, "no running game means no projection")
}

func TestSessionRestart(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	s := store.GetOrCreate(uuid.New())
	users := testUsers(2)
	recipients := userIDs(users)

	_, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)

	// Restart is only legal once the game is decided.
	_, err = s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionRestartGame}, recipients)
	assert.Equal(t, KindBadRequest, KindOf(err))

	s.game.GameOver = true
	s.game.Winner = s.game.Players[0]
	s.resultRecorded = true

	up, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionRestartGame}, recipients)
	require.NoError(t, err)
	view := up.Views[users[0].ID]
	require.NotNil(t, view)
	assert.False(t, view.GameOver, "restart deals a fresh game for the same roster")
	require.Len(t, view.Players, 2)
}

func TestSessionRecordsResultOnWin(t *testing.T) {
	ctx := context.Background()
	stats := newStubStats()
	store := newTestStore(stats, nil)
	s := store.GetOrCreate(uuid.New())
	users := testUsers(2)
	recipients := userIDs(users)

	_, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)

	// Pin seat 0 to a single playable card.
	redFive := cardFor(models.ColorRed, "5")
	rig(s.game, 0, []models.Card{redFive}, cardFor(models.ColorRed, "3"))
	winner := s.game.Players[0].UserID()

	up, err := s.Dispatch(ctx, winner, models.Action{Kind: models.ActionPlayCard, CardID: redFive.ID}, recipients)
	require.NoError(t, err)
	view := up.Views[winner]
	require.NotNil(t, view)
	assert.True(t, view.GameOver)
	require.NotNil(t, view.Winner)
	assert.Equal(t, winner, view.Winner.ID)

	select {
	case call := <-stats.calls:
		assert.Equal(t, winner, call.winner)
		assert.ElementsMatch(t, userIDs(users), call.participants)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a stats ledger call after the win")
	}

	// Further actions against the decided game never record twice.
	_, err = s.Dispatch(ctx, winner, models.Action{Kind: models.ActionDrawCard}, recipients)
	assert.Equal(t, KindNotStarted, KindOf(err))
	select {
	case <-stats.calls:
		t.Fatal("result must be recorded exactly once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionJournalsAppliedActions(t *testing.T) {
	ctx := context.Background()
	journal := &stubJournal{}
	store := newTestStore(nil, journal)
	roomID := uuid.New()
	s := store.GetOrCreate(roomID)
	users := testUsers(2)
	recipients := userIDs(users)

	_, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)

	actor := s.game.Players[s.game.Turn].UserID()
	_, err = s.Dispatch(ctx, actor, models.Action{Kind: models.ActionDrawCard}, recipients)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(journal.records()) == 2
	}, 2*time.Second, 10*time.Millisecond, "both applied actions should be journaled")

	recs := journal.records()
	indexes := map[int]string{}
	for _, rec := range recs {
		assert.Equal(t, roomID, rec.RoomID)
		assert.Equal(t, s.game.ID, rec.GameID)
		indexes[rec.ActionIndex] = rec.ActionType
	}
	assert.Equal(t, string(models.ActionStartGame), indexes[1])
	assert.Equal(t, string(models.ActionDrawCard), indexes[2])

	// Rejected actions are never journaled.
	_, err = s.Dispatch(ctx, uuid.New(), models.Action{Kind: models.ActionDrawCard}, recipients)
	require.Error(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, journal.records(), 2)
}

func TestSessionSerializesConcurrentDispatch(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(SessionConfig{
		AcquireTimeout: 5 * time.Second,
		Rng:            rand.New(rand.NewSource(2)),
	})
	s := store.GetOrCreate(uuid.New())
	users := testUsers(2)
	recipients := userIDs(users)

	_, err := s.Dispatch(ctx, users[0].ID, models.Action{Kind: models.ActionStartGame, Roster: users}, recipients)
	require.NoError(t, err)

	// Fire a burst of draws from both players; exactly one can hold the scope
	// at a time, so the game state never tears.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, u := range users {
			wg.Add(1)
			go func(uid uuid.UUID) {
				defer wg.Done()
				s.Dispatch(ctx, uid, models.Action{Kind: models.ActionDrawCard}, recipients)
			}(u.ID)
		}
	}
	wg.Wait()

	release, err := s.acquire(ctx)
	require.NoError(t, err)
	defer release()
	if s.game != nil {
		require.NoError(t, s.game.VerifyConservation())
	}
}
