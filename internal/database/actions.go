// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/biyoo/uno/internal/cache"
)

// InsertActionRecords persists a batch of journaled game actions into the
// game_actions archive table. Used by the statsd drainer.
func InsertActionRecords(ctx context.Context, recs []cache.GameActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO game_actions (room_id, game_id, action_index, actor_user_id, action_type, action_payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, to_timestamp($7 / 1000.0))
			ON CONFLICT (game_id, action_index) DO NOTHING
		`
		for _, rec := range recs {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				payload = []byte("{}")
			}
			if _, err := tx.Exec(ctx, q,
				rec.RoomID, rec.GameID, rec.ActionIndex,
				rec.ActorUserID, rec.ActionType, payload, rec.Timestamp,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert action batch: %w", err)
	}
	return nil
}
