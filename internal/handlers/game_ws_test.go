// internal/handlers/game_ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyoo/uno/internal/game"
	"github.com/biyoo/uno/internal/models"
)

func decode(t *testing.T, raw string) GameMessage {
	t.Helper()
	var msg GameMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return msg
}

func TestDecodeActionPlayCard(t *testing.T) {
	ch := &roomChannel{}
	msg := decode(t, `{"type":"play_card","card_id":17,"color":"red"}`)
	act, err := decodeAction(context.Background(), ch, msg)
	require.NoError(t, err)
	assert.Equal(t, models.ActionPlayCard, act.Kind)
	assert.Equal(t, 17, act.CardID)
	assert.Equal(t, models.ColorRed, act.ChosenColor)

	// card_id is mandatory; color is not.
	msg = decode(t, `{"type":"play_card","color":"red"}`)
	_, err = decodeAction(context.Background(), ch, msg)
	require.Error(t, err)
	assert.Equal(t, game.KindBadRequest, game.KindOf(err))

	msg = decode(t, `{"type":"play_card","card_id":17}`)
	act, err = decodeAction(context.Background(), ch, msg)
	require.NoError(t, err)
	assert.Empty(t, act.ChosenColor)
}

func TestDecodeActionDenyUno(t *testing.T) {
	ch := &roomChannel{}
	target := uuid.New()
	msg := decode(t, `{"type":"deny_uno","target_id":"`+target.String()+`"}`)
	act, err := decodeAction(context.Background(), ch, msg)
	require.NoError(t, err)
	assert.Equal(t, models.ActionDenyUno, act.Kind)
	assert.Equal(t, target, act.TargetID)

	msg = decode(t, `{"type":"deny_uno","target_id":"nonsense"}`)
	_, err = decodeAction(context.Background(), ch, msg)
	require.Error(t, err)
	assert.Equal(t, game.KindBadRequest, game.KindOf(err))

	msg = decode(t, `{"type":"deny_uno"}`)
	_, err = decodeAction(context.Background(), ch, msg)
	require.Error(t, err)
}

func TestDecodeActionSimpleKinds(t *testing.T) {
	ch := &roomChannel{}
	for wire, kind := range map[string]models.ActionKind{
		"draw_card":    models.ActionDrawCard,
		"say_uno":      models.ActionSayUno,
		"stop_game":    models.ActionStopGame,
		"restart_game": models.ActionRestartGame,
	} {
		act, err := decodeAction(context.Background(), ch, GameMessage{Type: wire})
		require.NoError(t, err, wire)
		assert.Equal(t, kind, act.Kind)
	}

	_, err := decodeAction(context.Background(), ch, GameMessage{Type: "discard_hand"})
	require.Error(t, err)
	assert.Equal(t, game.KindBadRequest, game.KindOf(err))
}

func TestRoomChannelMembership(t *testing.T) {
	ch := &roomChannel{}
	alice := uuid.New()
	bob := uuid.New()

	ch.add(nil, alice)
	ch.add(nil, bob)
	ch.add(nil, alice) // second tab

	assert.Equal(t, 2, ch.userCount(), "duplicate connections count once")
	assert.Equal(t, []uuid.UUID{alice, bob}, ch.userIDs(), "join order is preserved")
}
