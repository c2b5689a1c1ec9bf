// internal/database/stats.go
package database

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ledger is the persisted currency/stats counter store the game engine
// increments on game completion. It satisfies game.StatsRecorder.
type Ledger struct {
	// WinReward is the currency credited to a game's winner.
	WinReward int
}

// NewLedger reads UNO_WIN_REWARD (default 10) and returns a ledger.
func NewLedger() *Ledger {
	reward := 10
	if s := os.Getenv("UNO_WIN_REWARD"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			reward = v
		}
	}
	return &Ledger{WinReward: reward}
}

// RecordResult increments every participant's games-played counter and the
// winner's games-won counter plus currency reward, in one transaction.
func (l *Ledger) RecordResult(ctx context.Context, winnerID uuid.UUID, participantIDs []uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, e := tx.Exec(ctx,
			`UPDATE users SET games_played = games_played + 1 WHERE id = ANY($1)`,
			participantIDs,
		); e != nil {
			return e
		}
		_, e := tx.Exec(ctx,
			`UPDATE users SET games_won = games_won + 1, currency = currency + $1 WHERE id = $2`,
			l.WinReward, winnerID,
		)
		return e
	})
	if err != nil {
		return fmt.Errorf("failed to record game result: %w", err)
	}
	return nil
}
