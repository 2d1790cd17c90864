package game

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presina-online/presina/engine"
	"github.com/presina-online/presina/internal/models"
)

// recorder captures the events a room emits, inline under the room lock.
type recorder struct {
	broadcasts []Event
	byPlayer   map[uuid.UUID][]Event
}

func newRecorder() *recorder {
	return &recorder{byPlayer: make(map[uuid.UUID][]Event)}
}

func (rec *recorder) attach(r *Room) {
	r.BroadcastFn = func(ev Event) { rec.broadcasts = append(rec.broadcasts, ev) }
	r.BroadcastToPlayerFn = func(id uuid.UUID, ev Event) {
		rec.byPlayer[id] = append(rec.byPlayer[id], ev)
	}
}

func (rec *recorder) lastRejection(id uuid.UUID) (Event, bool) {
	evs := rec.byPlayer[id]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == EventActionRejected {
			return evs[i], true
		}
	}
	return Event{}, false
}

func (rec *recorder) broadcastTypes() []EventType {
	out := make([]EventType, 0, len(rec.broadcasts))
	for _, ev := range rec.broadcasts {
		out = append(out, ev.Type)
	}
	return out
}

// testRules keeps everything synchronous: no timers, no auto-play.
func testRules() models.HouseRules {
	return models.HouseRules{
		StartingLives:    5,
		MaxPlayers:       8,
		PlayTimeoutSec:   0,
		TrickDisplaySec:  0,
		AllowMidGameJoin: true,
	}
}

// newTestRoom seats n connected players; the first joiner is admin.
func newTestRoom(t *testing.T, n int) (*Room, []uuid.UUID, *recorder) {
	t.Helper()
	rec := newRecorder()
	r := NewRoom("test", testRules(), "")
	rec.attach(r)
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.New()
		p := &models.Player{ID: ids[i], Name: fmt.Sprintf("player-%d", i)}
		require.NoError(t, r.Join(p, false))
	}
	return r, ids, rec
}

func placeBetAction(bet int) Action {
	return Action{Type: ActionPlaceBet, Bet: &bet}
}

func playCardAction(c engine.Card) Action {
	a := Action{Type: ActionPlayCard, Suit: c.SuitName(), Rank: c.RankName()}
	if c.IsJolly() {
		a.JollyChoice = "lascia"
	}
	return a
}

// playFullRound drives a room from betting to the round boundary via the
// public action interface.
func playFullRound(t *testing.T, r *Room) {
	t.Helper()
	for steps := 0; steps < 200; steps++ {
		switch r.State.Phase {
		case engine.PhaseBetting:
			seat, ok := r.State.CurrentBetter()
			require.True(t, ok)
			bet := 0
			if forbidden, applies := r.State.ForbiddenBet(); applies && forbidden == 0 {
				bet = 1
			}
			r.HandleAction(r.seatToPlayer[seat], placeBetAction(bet))
		case engine.PhasePlaying:
			seat, ok := r.State.CurrentPlayer()
			require.True(t, ok)
			card := r.State.Seats[seat].Hand[0]
			r.HandleAction(r.seatToPlayer[seat], playCardAction(card))
		default:
			return
		}
	}
	t.Fatal("round did not finish")
}

func TestFirstJoinerIsAdmin(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)
	assert.True(t, r.Players[ids[0]].IsAdmin)
	assert.False(t, r.Players[ids[1]].IsAdmin)
	assert.Equal(t, 0, r.Players[ids[0]].Seat)
	assert.Equal(t, 2, r.Players[ids[2]].Seat)
}

func TestOnlyAdminStartsGame(t *testing.T) {
	r, ids, rec := newTestRoom(t, 3)

	r.HandleAction(ids[1], Action{Type: ActionStartGame})
	assert.Equal(t, engine.PhaseWaiting, r.State.Phase)
	_, rejected := rec.lastRejection(ids[1])
	assert.True(t, rejected)

	r.HandleAction(ids[0], Action{Type: ActionStartGame})
	assert.Equal(t, engine.PhaseBetting, r.State.Phase)
	assert.Contains(t, rec.broadcastTypes(), EventRoundStarted)
	assert.Contains(t, rec.broadcastTypes(), EventBettingRequested)
}

func TestSpectatorCannotAct(t *testing.T) {
	r, ids, rec := newTestRoom(t, 2)
	spec := &models.Player{ID: uuid.New(), Name: "watcher"}
	require.NoError(t, r.Join(spec, true))
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	r.HandleAction(spec.ID, placeBetAction(0))
	_, rejected := rec.lastRejection(spec.ID)
	assert.True(t, rejected)
	assert.Equal(t, uint8(0), r.State.BetsPlaced)
}

func TestBetFlowEmitsEvents(t *testing.T) {
	r, ids, rec := newTestRoom(t, 2)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	seat, _ := r.State.CurrentBetter()
	r.HandleAction(r.seatToPlayer[seat], placeBetAction(2))
	assert.Contains(t, rec.broadcastTypes(), EventBetPlaced)

	seat, _ = r.State.CurrentBetter()
	// Forbidden value is 3 now (5 cards - 2); any other bet passes.
	r.HandleAction(r.seatToPlayer[seat], placeBetAction(3))
	_, rejected := rec.lastRejection(r.seatToPlayer[seat])
	assert.True(t, rejected)
	assert.Equal(t, engine.PhaseBetting, r.State.Phase)

	r.HandleAction(r.seatToPlayer[seat], placeBetAction(2))
	assert.Equal(t, engine.PhasePlaying, r.State.Phase)
	assert.Contains(t, rec.broadcastTypes(), EventBettingComplete)
	assert.Contains(t, rec.broadcastTypes(), EventTrickStarted)
}

func TestReconnectKeepsSeatHandAndBet(t *testing.T) {
	r, ids, rec := newTestRoom(t, 3)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	seat, _ := r.State.CurrentBetter()
	better := r.seatToPlayer[seat]
	r.HandleAction(better, placeBetAction(1))

	r.HandleDisconnect(better)
	assert.False(t, r.Players[better].Connected)

	require.NoError(t, r.Rejoin(better, nil, nil))
	p := r.Players[better]
	assert.True(t, p.Connected)
	assert.Equal(t, int(seat), p.Seat)

	// The rejoin snapshot carries the intact hand and the placed bet.
	evs := rec.byPlayer[better]
	var snap *RoomState
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == EventRoomState {
			snap = evs[i].State
			break
		}
	}
	require.NotNil(t, snap)
	require.NotNil(t, snap.Seats[seat].Bet)
	assert.Equal(t, 1, *snap.Seats[seat].Bet)
	assert.Len(t, snap.Seats[seat].Hand, 5)
	assert.False(t, snap.Seats[seat].Hand[0].Hidden)
}

func TestRejoinUnknownPlayerFails(t *testing.T) {
	r, _, _ := newTestRoom(t, 2)
	assert.ErrorIs(t, r.Rejoin(uuid.New(), nil, nil), ErrNotInRoom)
}

func TestRoundResultsAndAdminAdvance(t *testing.T) {
	r, ids, rec := newTestRoom(t, 2)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})
	playFullRound(t, r)

	require.Equal(t, engine.PhaseTurnResults, r.State.Phase)
	assert.Contains(t, rec.broadcastTypes(), EventRoundResults)

	// Non-admin readiness is recorded but does not advance.
	nonAdmin := ids[1]
	if r.Players[nonAdmin].IsAdmin {
		nonAdmin = ids[0]
	}
	r.HandleAction(nonAdmin, Action{Type: ActionReady})
	assert.Equal(t, engine.PhaseTurnResults, r.State.Phase)
	assert.True(t, r.Players[nonAdmin].Ready)

	admin := ids[0]
	if !r.Players[admin].IsAdmin {
		admin = ids[1]
	}
	r.HandleAction(admin, Action{Type: ActionReady})
	assert.Equal(t, engine.PhaseBetting, r.State.Phase)
	assert.Equal(t, uint8(1), r.State.Round)
	assert.Equal(t, uint8(4), r.State.CardsThisRound())
}

func TestMidGameJoinerPromotedWithMinLives(t *testing.T) {
	r, ids, _ := newTestRoom(t, 2)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	// Joining mid-game queues as a pending spectator.
	joiner := &models.Player{ID: uuid.New(), Name: "late"}
	require.NoError(t, r.Join(joiner, false))
	assert.Equal(t, models.RoleSpectator, joiner.Role)
	assert.True(t, joiner.PendingJoin)

	playFullRound(t, r)
	require.Equal(t, engine.PhaseTurnResults, r.State.Phase)
	expectedLives, ok := r.State.MinInPlayLives()
	require.True(t, ok)

	r.HandleAction(ids[0], Action{Type: ActionReady})
	require.Equal(t, engine.PhaseBetting, r.State.Phase)

	assert.True(t, joiner.Seated())
	assert.False(t, joiner.PendingJoin)
	assert.Equal(t, models.RolePlayer, joiner.Role)
	assert.Equal(t, expectedLives, r.State.Seats[joiner.Seat].Lives)

	inOrder := false
	for _, s := range r.State.BettingOrder {
		if int(s) == joiner.Seat {
			inOrder = true
		}
	}
	assert.True(t, inOrder, "promoted joiner must be in the new rotation")
}

func TestKickRederivesTurn(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	seat, _ := r.State.CurrentBetter()
	target := r.seatToPlayer[seat]
	admin := ids[0]
	if target == admin {
		// Admin is on turn; have them bet first so the kick target differs.
		r.HandleAction(admin, placeBetAction(0))
		seat, _ = r.State.CurrentBetter()
		target = r.seatToPlayer[seat]
	}

	r.HandleAction(admin, Action{Type: ActionKickPlayer, TargetID: target})

	assert.Nil(t, r.Players[target])
	assert.True(t, r.State.Seats[seat].Departed)
	next, ok := r.State.CurrentBetter()
	require.True(t, ok)
	assert.NotEqual(t, seat, next, "turn must pass over the kicked seat")
}

func TestNonAdminCannotKick(t *testing.T) {
	r, ids, rec := newTestRoom(t, 3)
	r.HandleAction(ids[1], Action{Type: ActionKickPlayer, TargetID: ids[2]})
	_, rejected := rec.lastRejection(ids[1])
	assert.True(t, rejected)
	assert.NotNil(t, r.Players[ids[2]])
}

func TestLeaveInWaitingCompactsSeats(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)
	r.HandleAction(ids[1], Action{Type: ActionLeaveRoom})

	assert.Len(t, r.State.Seats, 2)
	assert.Equal(t, 0, r.Players[ids[0]].Seat)
	assert.Equal(t, 1, r.Players[ids[2]].Seat)
	assert.Equal(t, ids[2], r.seatToPlayer[1])
}

func TestAdminLeavingReassignsAdmin(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)
	r.HandleAction(ids[0], Action{Type: ActionLeaveRoom})

	admins := 0
	for _, p := range r.Players {
		if p.IsAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestAdminDisconnectTransfersAdmin(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)
	r.HandleDisconnect(ids[0])

	assert.False(t, r.Players[ids[0]].IsAdmin)
	admins := 0
	for _, p := range r.Players {
		if p.IsAdmin {
			assert.True(t, p.Connected)
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestLastOpponentLeavingEndsGame(t *testing.T) {
	r, ids, rec := newTestRoom(t, 2)
	r.HandleAction(ids[0], Action{Type: ActionStartGame})
	r.HandleAction(ids[1], Action{Type: ActionLeaveRoom})

	assert.True(t, r.State.IsTerminal())
	assert.Contains(t, rec.broadcastTypes(), EventGameEnded)
}

func TestChatRingBuffer(t *testing.T) {
	r, ids, rec := newTestRoom(t, 2)
	for i := 0; i < maxChatHistory+20; i++ {
		r.HandleAction(ids[0], Action{Type: ActionChat, Text: fmt.Sprintf("msg %d", i)})
	}
	assert.Len(t, r.chat, maxChatHistory)
	assert.Equal(t, "msg 20", r.chat[0].Text)
	assert.Contains(t, rec.broadcastTypes(), EventChatMessage)

	r.HandleAction(ids[0], Action{Type: ActionChat, Text: "   "})
	_, rejected := rec.lastRejection(ids[0])
	assert.True(t, rejected)
}

func TestAutoPlayForDisconnectedActor(t *testing.T) {
	rec := newRecorder()
	rules := testRules()
	rules.AutoPlayDisconnected = true
	r := NewRoom("test", rules, "")
	rec.attach(r)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		p := &models.Player{ID: ids[i], Name: fmt.Sprintf("player-%d", i)}
		require.NoError(t, r.Join(p, false))
	}
	r.HandleAction(ids[0], Action{Type: ActionStartGame})

	seat, _ := r.State.CurrentBetter()
	actor := r.seatToPlayer[seat]
	r.HandleDisconnect(actor)

	// The disconnected better's bet was auto-placed and the turn moved on.
	assert.NotEqual(t, engine.BetNone, r.State.Seats[seat].Bet)
	next, ok := r.State.CurrentBetter()
	require.True(t, ok)
	assert.NotEqual(t, seat, next)
	assert.Contains(t, rec.broadcastTypes(), EventBetPlaced)
}
