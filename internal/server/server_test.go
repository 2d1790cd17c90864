package server

import (
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presina-online/presina/internal/game"
)

func TestEnqueuePreservesEventOrder(t *testing.T) {
	s := &Server{log: logrus.WithField("component", "server")}
	out := make(chan []byte, 8)

	s.enqueue([]chan []byte{out}, game.Event{Type: game.EventBetPlaced})
	s.enqueue([]chan []byte{out}, game.Event{Type: game.EventBettingComplete})
	s.enqueue([]chan []byte{out}, game.Event{Type: game.EventTrickStarted})

	want := []game.EventType{game.EventBetPlaced, game.EventBettingComplete, game.EventTrickStarted}
	for _, wantType := range want {
		var ev game.Event
		require.NoError(t, json.Unmarshal(<-out, &ev))
		assert.Equal(t, wantType, ev.Type)
	}
}

func TestEnqueueFullOutboxDropsNotBlocks(t *testing.T) {
	s := &Server{log: logrus.WithField("component", "server")}
	out := make(chan []byte, 1)

	s.enqueue([]chan []byte{out}, game.Event{Type: game.EventCardPlayed})
	s.enqueue([]chan []byte{out}, game.Event{Type: game.EventTrickWon})

	assert.Len(t, out, 1)
	var ev game.Event
	require.NoError(t, json.Unmarshal(<-out, &ev))
	assert.Equal(t, game.EventCardPlayed, ev.Type)
}
