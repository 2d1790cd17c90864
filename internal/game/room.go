package game

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/engine"
	"github.com/presina-online/presina/internal/models"
)

// Inbound action types.
const (
	ActionJoinRoom     = "joinRoom"
	ActionLeaveRoom    = "leaveRoom"
	ActionKickPlayer   = "kickPlayer"
	ActionStartGame    = "startGame"
	ActionPlaceBet     = "placeBet"
	ActionPlayCard     = "playCard"
	ActionDeclareJolly = "declareJolly"
	ActionReady        = "readyForNextRound"
	ActionRejoinGame   = "rejoinGame"
	ActionSnapshot     = "requestSnapshot"
	ActionChat         = "chatMessage"
)

// Action is one decoded inbound message. The transport authenticates the
// sender; the room only ever sees the authenticated player id.
type Action struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`        // joinRoom
	Bet         *int      `json:"bet,omitempty"`         // placeBet
	Suit        string    `json:"suit,omitempty"`        // playCard
	Rank        string    `json:"rank,omitempty"`        // playCard
	JollyChoice string    `json:"jollyChoice,omitempty"` // playCard (optional)
	Choice      string    `json:"choice,omitempty"`      // declareJolly
	TargetID    uuid.UUID `json:"targetId,omitempty"`    // kickPlayer
	Text        string    `json:"text,omitempty"`        // chatMessage
}

// OnGameEndFn is invoked once when a room's game reaches the terminal phase.
type OnGameEndFn func(roomID uuid.UUID, winners []uuid.UUID, standings []FinalStanding, stats map[uuid.UUID]models.UserStats)

const maxChatHistory = 100
const maxChatLen = 200

// Room owns one game and its attached sessions. Every mutation runs under
// mu; timer callbacks re-acquire it and are guarded by turnEpoch so a stale
// timer never acts on a state it wasn't armed for.
type Room struct {
	ID         uuid.UUID
	Name       string
	AccessCode string // empty for public rooms
	HouseRules models.HouseRules

	State engine.GameState

	Players      map[uuid.UUID]*models.Player
	seatToPlayer [engine.MaxSeats]uuid.UUID
	seatNames    [engine.MaxSeats]string // survives session removal for standings

	mu     sync.Mutex
	log    *logrus.Entry
	failed bool
	closed bool

	CreatedAt    time.Time
	LastActivity time.Time
	GameOverAt   time.Time

	chat        []models.ChatMessage
	actionIndex int

	playTimer   *time.Timer
	trickTimer  *time.Timer
	turnEpoch   int
	scoredRound int // last round folded into results/stats, -1 before any

	stats map[uuid.UUID]*models.UserStats

	BroadcastFn         func(ev Event)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)
	OnGameEnd           OnGameEndFn
	OnAction            func(action models.GameAction)
}

// NewRoom creates a room in the waiting phase.
func NewRoom(name string, rules models.HouseRules, accessCode string) *Room {
	id := uuid.New()
	cfg := engine.DefaultConfig()
	if rules.StartingLives > 0 {
		cfg.StartingLives = int8(rules.StartingLives)
	}
	if rules.MaxPlayers > 0 && rules.MaxPlayers <= engine.MaxSeats {
		cfg.MaxPlayers = uint8(rules.MaxPlayers)
	}
	r := &Room{
		ID:           id,
		Name:         name,
		AccessCode:   accessCode,
		HouseRules:   rules,
		State:        engine.NewGame(uint64(time.Now().UnixNano()), cfg),
		Players:      make(map[uuid.UUID]*models.Player),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		scoredRound:  -1,
		stats:        make(map[uuid.UUID]*models.UserStats),
		log:          logrus.WithField("room", id),
	}
	return r
}

// HandleAction validates and applies one inbound action for playerID.
// Rejections go back to the initiator only and never mutate state.
func (r *Room) HandleAction(playerID uuid.UUID, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed || r.closed {
		return
	}
	r.LastActivity = time.Now()

	var err error
	switch a.Type {
	case ActionLeaveRoom:
		err = r.leaveLocked(playerID)
	case ActionKickPlayer:
		err = r.kickLocked(playerID, a.TargetID)
	case ActionStartGame:
		err = r.startGameLocked(playerID)
	case ActionPlaceBet:
		err = r.placeBetLocked(playerID, a)
	case ActionPlayCard:
		err = r.playCardLocked(playerID, a)
	case ActionDeclareJolly:
		err = r.declareJollyLocked(playerID, a.Choice)
	case ActionReady:
		err = r.readyLocked(playerID)
	case ActionSnapshot, ActionRejoinGame:
		// Socket-level rejoin reattaches at accept time; an in-band
		// rejoin just refreshes the snapshot.
		r.sendSnapshot(playerID)
	case ActionChat:
		err = r.chatLocked(playerID, a.Text)
	default:
		err = errors.New("unknown action type")
	}

	if err != nil {
		if errors.Is(err, engine.ErrInvariant) {
			r.fail(err)
			return
		}
		r.reject(playerID, err)
	}
}

// reject sends action_rejected to the initiator only.
func (r *Room) reject(playerID uuid.UUID, err error) {
	r.sendTo(playerID, Event{
		Type:    EventActionRejected,
		Payload: map[string]interface{}{"reason": err.Error()},
	})
}

// fail marks the room broken after an invariant violation. Events stop;
// the manager reaps it on the next cleanup sweep.
func (r *Room) fail(err error) {
	r.log.WithError(err).Error("room failed on invariant violation")
	r.failed = true
	r.cancelTimers()
}

func (r *Room) broadcast(ev Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

func (r *Room) sendTo(playerID uuid.UUID, ev Event) {
	if r.BroadcastToPlayerFn != nil {
		r.BroadcastToPlayerFn(playerID, ev)
	}
}

// sendSnapshot sends the personalized room_state to one player.
func (r *Room) sendSnapshot(playerID uuid.UUID) {
	st := r.Snapshot(playerID)
	r.sendTo(playerID, Event{Type: EventRoomState, State: &st})
}

// sendSnapshotAll fans a fresh personalized snapshot to every session.
func (r *Room) sendSnapshotAll() {
	for id := range r.Players {
		r.sendSnapshot(id)
	}
}

func (r *Room) seatPlayer(seat uint8) *models.Player {
	if int(seat) >= len(r.seatToPlayer) {
		return nil
	}
	id := r.seatToPlayer[seat]
	if id == uuid.Nil {
		return nil
	}
	return r.Players[id]
}

// seatIdentity names a seat even after its session left the room.
func (r *Room) seatIdentity(seat uint8) EventPlayer {
	if int(seat) >= len(r.seatToPlayer) {
		return EventPlayer{}
	}
	return EventPlayer{ID: r.seatToPlayer[seat], Name: r.seatNames[seat]}
}

func (r *Room) eventPlayer(seat uint8) *EventPlayer {
	id := r.seatIdentity(seat)
	return &id
}

// sortedPlayers returns the sessions in a stable order for snapshots.
func (r *Room) sortedPlayers() []*models.Player {
	out := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// logAction records an applied action for the historian hook.
func (r *Room) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if r.OnAction == nil {
		return
	}
	r.OnAction(models.GameAction{
		ID:        uuid.New(),
		RoomID:    r.ID,
		ActorID:   actor,
		Type:      actionType,
		Index:     r.actionIndex,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// ---------------------------------------------------------------------------
// Game actions
// ---------------------------------------------------------------------------

func (r *Room) startGameLocked(playerID uuid.UUID) error {
	p := r.Players[playerID]
	if p == nil {
		return errors.New("not in this room")
	}
	if !p.IsAdmin {
		return errors.New("only the room admin can start the game")
	}
	if err := r.State.StartGame(); err != nil {
		return err
	}
	r.logAction(playerID, ActionStartGame, nil)
	r.log.WithField("players", len(r.State.Seats)).Info("game started")
	r.announceRound()
	return nil
}

func (r *Room) placeBetLocked(playerID uuid.UUID, a Action) error {
	p := r.Players[playerID]
	if p == nil || !p.Seated() {
		return errors.New("not seated in this game")
	}
	if a.Bet == nil {
		return errors.New("missing bet")
	}
	if err := r.State.PlaceBet(uint8(p.Seat), int8(*a.Bet)); err != nil {
		return err
	}
	r.logAction(playerID, ActionPlaceBet, map[string]interface{}{"bet": *a.Bet})
	r.broadcast(Event{
		Type:    EventBetPlaced,
		Player:  &EventPlayer{ID: p.ID, Name: p.Name},
		Payload: map[string]interface{}{"bet": *a.Bet},
	})
	if r.State.Phase != engine.PhaseBetting {
		r.broadcast(Event{
			Type:    EventBettingComplete,
			Payload: map[string]interface{}{"totalBets": r.State.TotalBets()},
		})
	}
	r.afterTransition()
	return nil
}

func (r *Room) playCardLocked(playerID uuid.UUID, a Action) error {
	p := r.Players[playerID]
	if p == nil || !p.Seated() {
		return errors.New("not seated in this game")
	}
	card, err := parseCard(a.Suit, a.Rank)
	if err != nil {
		return err
	}
	choice, err := parseJollyChoice(a.JollyChoice, true)
	if err != nil {
		return err
	}
	if err := r.State.PlayCard(uint8(p.Seat), card, choice); err != nil {
		return err
	}
	r.logAction(playerID, ActionPlayCard, map[string]interface{}{
		"card": card.String(), "choice": a.JollyChoice,
	})
	if r.State.Phase == engine.PhaseWaitingJolly {
		r.broadcast(Event{Type: EventJollyRequired, Player: &EventPlayer{ID: p.ID, Name: p.Name}})
		r.afterTransition()
		return nil
	}
	r.emitCardPlayed(p, card, choice)
	r.afterTransition()
	return nil
}

func (r *Room) declareJollyLocked(playerID uuid.UUID, choiceStr string) error {
	p := r.Players[playerID]
	if p == nil || !p.Seated() {
		return errors.New("not seated in this game")
	}
	choice, err := parseJollyChoice(choiceStr, false)
	if err != nil {
		return err
	}
	if err := r.State.DeclareJolly(uint8(p.Seat), choice); err != nil {
		return err
	}
	r.logAction(playerID, ActionDeclareJolly, map[string]interface{}{"choice": choiceStr})
	r.emitCardPlayed(p, engine.Jolly, choice)
	r.afterTransition()
	return nil
}

func (r *Room) readyLocked(playerID uuid.UUID) error {
	p := r.Players[playerID]
	if p == nil || !p.Seated() {
		return errors.New("not seated in this game")
	}
	if r.State.Phase != engine.PhaseTurnResults {
		return engine.ErrWrongPhase
	}
	p.Ready = true
	r.logAction(playerID, ActionReady, nil)
	if !p.IsAdmin {
		// Recorded in snapshots; only the admin advances the round.
		r.sendSnapshotAll()
		return nil
	}
	r.promotePendingJoins()
	if err := r.State.StartNextRound(); err != nil {
		return err
	}
	for _, pl := range r.Players {
		pl.Ready = false
	}
	if r.State.IsTerminal() {
		r.onGameOver()
		return nil
	}
	r.announceRound()
	return nil
}

func (r *Room) chatLocked(playerID uuid.UUID, text string) error {
	p := r.Players[playerID]
	if p == nil {
		return errors.New("not in this room")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("empty message")
	}
	if len(text) > maxChatLen {
		text = text[:maxChatLen]
	}
	msg := models.ChatMessage{
		ID:        uuid.New(),
		PlayerID:  p.ID,
		Name:      p.Name,
		Text:      text,
		Timestamp: time.Now(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatHistory {
		r.chat = r.chat[len(r.chat)-maxChatHistory:]
	}
	r.broadcast(Event{
		Type:   EventChatMessage,
		Player: &EventPlayer{ID: p.ID, Name: p.Name},
		Payload: map[string]interface{}{
			"id": msg.ID, "text": msg.Text, "timestamp": msg.Timestamp,
		},
	})
	return nil
}

func (r *Room) chatHistory() []models.ChatMessage {
	if len(r.chat) == 0 {
		return nil
	}
	return append([]models.ChatMessage(nil), r.chat...)
}

// ---------------------------------------------------------------------------
// Flow: events and timers after engine transitions
// ---------------------------------------------------------------------------

// announceRound emits round_started plus fresh snapshots and opens betting.
func (r *Room) announceRound() {
	r.broadcast(Event{
		Type: EventRoundStarted,
		Payload: map[string]interface{}{
			"round":         int(r.State.Round),
			"cardsThisRound": int(r.State.CardsThisRound()),
			"specialRound":  r.State.IsSpecialRound(),
		},
	})
	r.sendSnapshotAll()
	r.afterTransition()
}

// afterTransition inspects the phase reached by the last applied action and
// emits the follow-up events, arms timers and auto-advances offline actors.
// Must run with the lock held.
func (r *Room) afterTransition() {
	r.turnEpoch++
	r.cancelTimers()

	switch r.State.Phase {
	case engine.PhaseBetting:
		r.requestBet()
	case engine.PhasePlaying:
		if len(r.State.Table) == 0 {
			r.broadcast(Event{
				Type: EventTrickStarted,
				Payload: map[string]interface{}{
					"trickNumber": int(r.State.Trick) + 1,
					"totalTricks": int(r.State.CardsThisRound()),
				},
			})
		}
		r.armTurn()
	case engine.PhaseWaitingJolly:
		r.armTurn()
	case engine.PhaseTrickComplete:
		r.emitTrickWon()
		r.armTrickAdvance()
	case engine.PhaseTurnResults:
		r.publishResults()
		r.sendSnapshotAll()
	case engine.PhaseGameOver:
		r.publishResults()
		r.onGameOver()
	}
}

// requestBet announces whose bet is due and arms the turn timer.
func (r *Room) requestBet() {
	seat, ok := r.State.CurrentBetter()
	if !ok {
		return
	}
	payload := map[string]interface{}{"maxBet": int(r.State.CardsThisRound())}
	if forbidden, applies := r.State.ForbiddenBet(); applies {
		payload["forbiddenBet"] = int(forbidden)
	}
	r.broadcast(Event{Type: EventBettingRequested, Player: r.eventPlayer(seat), Payload: payload})
	r.armTurn()
}

// emitCardPlayed announces a card landing on the table, including a resolved
// jolly's declaration.
func (r *Room) emitCardPlayed(p *models.Player, card engine.Card, choice engine.JollyChoice) {
	ev := Event{
		Type:   EventCardPlayed,
		Player: &EventPlayer{ID: p.ID, Name: p.Name},
		Card:   eventCard(card, choice),
	}
	r.broadcast(ev)
}

func (r *Room) emitTrickWon() {
	if r.State.TrickWinner < 0 {
		return
	}
	winner := uint8(r.State.TrickWinner)
	var winning *EventCard
	for _, play := range r.State.LastTrick {
		if play.Seat == winner {
			winning = eventCard(play.Card, play.Choice)
		}
	}
	r.broadcast(Event{Type: EventTrickWon, Player: r.eventPlayer(winner), Card: winning})
}

// publishResults emits round_results and folds the round into the per-player
// stat aggregates, once per scored round.
func (r *Room) publishResults() {
	if len(r.State.Results) == 0 || r.scoredRound == int(r.State.Round) {
		return
	}
	r.scoredRound = int(r.State.Round)
	r.accumulateStats()
	r.broadcast(Event{Type: EventRoundResults, Results: r.seatResults()})
}

func (r *Room) accumulateStats() {
	for _, res := range r.State.Results {
		p := r.seatPlayer(res.Seat)
		if p == nil {
			continue
		}
		s := r.stats[p.ID]
		if s == nil {
			s = &models.UserStats{UserID: p.ID}
			r.stats[p.ID] = s
		}
		if res.Correct {
			s.BetsCorrect++
		} else {
			s.BetsWrong++
		}
		s.TricksWon += int(res.TricksWon)
		s.LivesLost += int(-res.LifeChange)
	}
}

// onGameOver emits game_ended, fires the end-of-game hook once and stops
// the timers. The room lingers for post-game chat until the manager reaps it.
func (r *Room) onGameOver() {
	if !r.GameOverAt.IsZero() {
		return
	}
	r.GameOverAt = time.Now()
	r.cancelTimers()

	standings := r.finalStandings()
	winnerSeats := r.State.Winners()
	winners := make([]uuid.UUID, 0, len(winnerSeats))
	winnerEvs := make([]EventPlayer, 0, len(winnerSeats))
	for _, seat := range winnerSeats {
		if p := r.seatPlayer(seat); p != nil {
			winners = append(winners, p.ID)
			winnerEvs = append(winnerEvs, EventPlayer{ID: p.ID, Name: p.Name})
		}
	}
	for _, id := range winners {
		if s := r.stats[id]; s != nil {
			s.GamesWon++
		}
	}
	for _, s := range r.stats {
		s.GamesPlayed++
	}

	r.broadcast(Event{
		Type:      EventGameEnded,
		Standings: standings,
		Payload: map[string]interface{}{
			"winners":  winnerEvs,
			"maxLives": int(r.State.MaxLives()),
		},
	})
	r.sendSnapshotAll()
	r.log.WithField("winners", winners).Info("game ended")

	if r.OnGameEnd != nil {
		stats := make(map[uuid.UUID]models.UserStats, len(r.stats))
		for id, s := range r.stats {
			stats[id] = *s
		}
		go r.OnGameEnd(r.ID, winners, standings, stats)
	}
}

// ---------------------------------------------------------------------------
// Timers and auto-play
// ---------------------------------------------------------------------------

// armTurn schedules the play timeout for the current actor, or advances an
// offline actor immediately when the policy says so. Auto-play chains through
// afterTransition until a connected player is on turn or the phase leaves
// the acting states.
func (r *Room) armTurn() {
	seat, ok := r.currentActor()
	if !ok {
		return
	}
	p := r.seatPlayer(seat)
	if p == nil || (!p.Connected && r.HouseRules.AutoPlayDisconnected) {
		r.autoActFor(seat)
		return
	}
	if r.HouseRules.PlayTimeoutSec > 0 {
		epoch := r.turnEpoch
		r.playTimer = time.AfterFunc(time.Duration(r.HouseRules.PlayTimeoutSec)*time.Second, func() {
			r.timerFired(epoch)
		})
	}
}

// timerFired is the play-timeout callback: it re-enters the room as a queued
// action and auto-plays for whoever is still on turn.
func (r *Room) timerFired(epoch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed || r.closed || epoch != r.turnEpoch {
		return
	}
	seat, ok := r.currentActor()
	if !ok {
		return
	}
	if p := r.seatPlayer(seat); p != nil {
		r.log.WithFields(logrus.Fields{"player": p.ID, "phase": r.State.Phase.String()}).
			Info("turn timed out, auto-playing")
	}
	r.autoActFor(seat)
}

// currentActor returns the seat whose action the room is waiting for.
func (r *Room) currentActor() (uint8, bool) {
	if seat, ok := r.State.CurrentBetter(); ok {
		return seat, true
	}
	return r.State.CurrentPlayer()
}

// autoActFor performs the default action for a seat: the first legal bet,
// the lowest card in hand, and lascia for any jolly.
func (r *Room) autoActFor(seat uint8) {
	p := r.seatPlayer(seat)
	actorID := uuid.Nil
	if p != nil {
		actorID = p.ID
	}

	switch r.State.Phase {
	case engine.PhaseBetting:
		bet := int8(0)
		if forbidden, applies := r.State.ForbiddenBet(); applies && forbidden == 0 {
			bet = 1
		}
		if err := r.State.PlaceBet(seat, bet); err != nil {
			r.fail(err)
			return
		}
		r.logAction(actorID, ActionPlaceBet, map[string]interface{}{"bet": int(bet), "auto": true})
		if p != nil {
			r.broadcast(Event{
				Type:    EventBetPlaced,
				Player:  &EventPlayer{ID: p.ID, Name: p.Name},
				Payload: map[string]interface{}{"bet": int(bet), "auto": true},
			})
		}
		if r.State.Phase != engine.PhaseBetting {
			r.broadcast(Event{
				Type:    EventBettingComplete,
				Payload: map[string]interface{}{"totalBets": r.State.TotalBets()},
			})
		}
	case engine.PhasePlaying:
		card, ok := lowestCard(r.State.Seats[seat].Hand)
		if !ok {
			r.fail(errors.New("auto-play with empty hand"))
			return
		}
		choice := engine.JollyNone
		if card.IsJolly() {
			choice = engine.JollyLascia
		}
		if err := r.State.PlayCard(seat, card, choice); err != nil {
			r.fail(err)
			return
		}
		r.logAction(actorID, ActionPlayCard, map[string]interface{}{"card": card.String(), "auto": true})
		if p != nil {
			r.emitCardPlayed(p, card, choice)
		}
	case engine.PhaseWaitingJolly:
		if err := r.State.DeclareJolly(seat, engine.JollyLascia); err != nil {
			r.fail(err)
			return
		}
		r.logAction(actorID, ActionDeclareJolly, map[string]interface{}{"choice": "lascia", "auto": true})
		if p != nil {
			r.emitCardPlayed(p, engine.Jolly, engine.JollyLascia)
		}
	default:
		return
	}
	r.afterTransition()
}

// armTrickAdvance schedules the trick-complete display window, after which
// the next trick starts (or the round is scored).
func (r *Room) armTrickAdvance() {
	delay := time.Duration(r.HouseRules.TrickDisplaySec) * time.Second
	if delay <= 0 {
		r.advanceTrickNow()
		return
	}
	epoch := r.turnEpoch
	r.trickTimer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.failed || r.closed || epoch != r.turnEpoch {
			return
		}
		r.advanceTrickNow()
	})
}

func (r *Room) advanceTrickNow() {
	if err := r.State.AdvanceTrick(); err != nil {
		if !errors.Is(err, engine.ErrWrongPhase) {
			r.fail(err)
		}
		return
	}
	r.afterTransition()
}

func (r *Room) cancelTimers() {
	if r.playTimer != nil {
		r.playTimer.Stop()
		r.playTimer = nil
	}
	if r.trickTimer != nil {
		r.trickTimer.Stop()
		r.trickTimer = nil
	}
}

// ---------------------------------------------------------------------------
// Parsing helpers
// ---------------------------------------------------------------------------

func eventCard(c engine.Card, choice engine.JollyChoice) *EventCard {
	ev := &EventCard{
		Suit:     c.SuitName(),
		Rank:     c.RankName(),
		Strength: int(c.EffectiveStrength(choice)),
		Jolly:    c.IsJolly(),
	}
	switch choice {
	case engine.JollyPrende:
		ev.Choice = "prende"
	case engine.JollyLascia:
		ev.Choice = "lascia"
	}
	return ev
}

func parseCard(suit, rank string) (engine.Card, error) {
	var s uint8
	switch strings.ToLower(suit) {
	case "bastoni":
		s = engine.SuitBastoni
	case "spade":
		s = engine.SuitSpade
	case "coppe":
		s = engine.SuitCoppe
	case "denari", "ori":
		s = engine.SuitDenari
	default:
		return engine.EmptyCard, errors.New("unknown suit")
	}
	var k uint8
	switch strings.ToLower(rank) {
	case "asso", "1":
		k = engine.RankAsso
	case "2":
		k = engine.RankDue
	case "3":
		k = engine.RankTre
	case "4":
		k = engine.RankQuattro
	case "5":
		k = engine.RankCinque
	case "6":
		k = engine.RankSei
	case "7":
		k = engine.RankSette
	case "fante", "8":
		k = engine.RankFante
	case "cavallo", "9":
		k = engine.RankCavallo
	case "re", "10":
		k = engine.RankRe
	default:
		return engine.EmptyCard, errors.New("unknown rank")
	}
	return engine.NewCard(s, k), nil
}

func parseJollyChoice(s string, allowEmpty bool) (engine.JollyChoice, error) {
	switch strings.ToLower(s) {
	case "":
		if allowEmpty {
			return engine.JollyNone, nil
		}
		return engine.JollyNone, errors.New("missing jolly choice")
	case "prende":
		return engine.JollyPrende, nil
	case "lascia":
		return engine.JollyLascia, nil
	}
	return engine.JollyNone, errors.New("unknown jolly choice")
}

// lowestCard returns the weakest card in hand by static strength.
func lowestCard(hand []engine.Card) (engine.Card, bool) {
	if len(hand) == 0 {
		return engine.EmptyCard, false
	}
	best := hand[0]
	for _, c := range hand[1:] {
		if c.Strength() < best.Strength() {
			best = c
		}
	}
	return best, true
}
