package game

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrInvalidPhase  = errors.New("invalid phase for action")
	ErrNotDrawer     = errors.New("not the current drawer")
	ErrSelfVote      = errors.New("cannot vote for self")
	ErrColorTaken    = errors.New("color slot taken")
	ErrColorRange    = errors.New("color slot out of range")
	ErrNotResolved   = errors.New("voting not resolved")
)

// Emitter is the transport contract the session needs: address one
// connection, everyone, or everyone but the sender. Connection ids are
// stable for the connection's lifetime.
type Emitter interface {
	To(id string, event string, v any)
	Broadcast(event string, v any)
	BroadcastExcept(senderID string, event string, v any)
}

// WordSource yields one uniformly random word per call. Words may
// repeat across calls.
type WordSource interface {
	Next() (string, error)
}

type Options struct {
	NumColors   int           // color slots available, default 6
	MaxRounds   int           // drawing passes before the bluffer wins, default 2
	TurnTimeout time.Duration // 0 disables the server-side turn deadline
	ExportFile  string        // "" disables results export
}

func (o Options) withDefaults() Options {
	if o.NumColors <= 0 {
		o.NumColors = 6
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = 2
	}
	return o
}

// Session is the single authoritative game state. Every inbound event
// is applied under one mutex, so handlers observe a serialized stream
// of mutations.
type Session struct {
	mu    sync.Mutex
	emit  Emitter
	words WordSource
	opts  Options

	players   map[string]*Player
	joinOrder []string

	gameStarted bool
	phase       Phase
	playerOrder []string
	round       *Round

	drawerPos  int // index into playerOrder of the current drawer
	turnsTaken int // completed turns in the current pass

	roundsCompleted int
	voters          []string // required voter set, snapshot when voting opens
	resolved        bool
	lastResult      *VoteResult
	results         []*VoteResult

	turnTimer *time.Timer
	turnGen   int
}

func New(emit Emitter, words WordSource, opts Options) *Session {
	return &Session{
		emit:    emit,
		words:   words,
		opts:    opts.withDefaults(),
		players: make(map[string]*Player),
		phase:   PhaseLobby,
	}
}

// Connect registers a new connection. Mid-game joiners skip the lobby:
// they are auto-readied, appended to the turn order, handed the current
// word (a late joiner is never the bluffer) and the lowest free color.
func (s *Session) Connect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// connection ids are unique among live connections
	if s.players[id] != nil {
		return
	}
	s.players[id] = &Player{ID: id, ColorSlot: ColorNone, JoinedAt: time.Now().UTC()}
	s.joinOrder = append(s.joinOrder, id)
	log.Info().Str("id", id).Int("total", len(s.players)).Msg("player connected")

	s.broadcastLobbyCountLocked()

	if !s.gameStarted {
		return
	}

	p := s.players[id]
	p.Ready = true
	p.Name = placeholderName()
	s.playerOrder = append(s.playerOrder, id)
	if slot, ok := s.lowestFreeColorLocked(); ok {
		p.ColorSlot = slot
		s.emit.To(id, EventSelectColor, ColorChoice{Color: slot})
	}
	s.emit.To(id, EventLobbyReady, RoundStart{Word: s.round.Word})
	if s.phase == PhaseVoting {
		// joined after the pass ended: sync the voting screen too
		s.emit.To(id, EventGameOver, s.turnsExhaustedLocked())
	}
	s.emit.Broadcast(EventNamesColors, s.playerInfosLocked())
	log.Info().Str("id", id).Str("name", p.Name).Msg("late join")
}

// Disconnect removes a player entirely: color slot freed, turn order
// entry dropped, pending vote withdrawn. A departing drawer ends their
// turn; a departing lobby holdout can complete the ready condition.
func (s *Session) Disconnect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return
	}

	wasDrawer := s.phase == PhaseDrawing && s.currentDrawerLocked() == id

	pos := indexOf(s.playerOrder, id)
	if pos >= 0 {
		s.playerOrder = append(s.playerOrder[:pos], s.playerOrder[pos+1:]...)
		if pos < s.drawerPos {
			s.drawerPos--
		}
	}
	delete(s.players, id)
	if j := indexOf(s.joinOrder, id); j >= 0 {
		s.joinOrder = append(s.joinOrder[:j], s.joinOrder[j+1:]...)
	}
	log.Info().Str("id", id).Int("total", len(s.players)).Msg("player disconnected")

	if s.gameStarted && len(s.playerOrder) == 0 {
		s.resetLocked()
		return
	}
	if s.gameStarted && s.round != nil && s.round.BlufferID == id {
		// the round cannot resolve without its bluffer: finish here
		found := s.resolved && s.lastResult.BlufferCaught
		log.Info().Str("id", id).Bool("blufferFound", found).Msg("bluffer left mid-game")
		s.emit.Broadcast(EventGameFinished, GameFinished{BlufferFound: found})
		s.resetLocked()
		return
	}
	s.broadcastLobbyCountLocked()

	switch s.phase {
	case PhaseLobby:
		if len(s.playerOrder) >= 1 && len(s.playerOrder) == len(s.players) {
			s.startGameLocked()
		}
	case PhaseDrawing:
		if wasDrawer {
			s.cancelTurnTimerLocked()
			s.drawerPos %= len(s.playerOrder)
			if s.turnsTaken >= len(s.playerOrder) {
				s.openVotingLocked()
			} else {
				s.signalDrawerLocked()
			}
		}
		s.emit.Broadcast(EventNamesColors, s.playerInfosLocked())
	case PhaseVoting:
		s.withdrawVotesLocked(id, p.Vote)
		s.maybeResolveVotesLocked()
	}
}

// ReadyUp marks the sender ready and queues them in the turn order.
// When the lobby becomes unanimous the game starts.
func (s *Session) ReadyUp(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if name != "" {
		p.Name = name
	}
	if p.Ready {
		return nil
	}
	p.Ready = true
	s.playerOrder = append(s.playerOrder, id)
	log.Info().Str("id", id).Str("name", p.Name).Msg("ready up")

	if len(s.playerOrder) == len(s.players) {
		s.startGameLocked()
	} else {
		s.broadcastLobbyCountLocked()
	}
	return nil
}

// Unready reverses readiness. Invalid once a game is running.
func (s *Session) Unready(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if !p.Ready {
		return nil
	}
	p.Ready = false
	if pos := indexOf(s.playerOrder, id); pos >= 0 {
		s.playerOrder = append(s.playerOrder[:pos], s.playerOrder[pos+1:]...)
	}
	log.Info().Str("id", id).Msg("unready")
	s.broadcastLobbyCountLocked()
	return nil
}

// SelectColor binds a free color slot to the requester and echoes it
// back. Rejections answer with the ColorNone sentinel and change
// nothing. Re-requesting one's own color is a no-op success.
func (s *Session) SelectColor(id string, slot int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return ColorNone, ErrUnknownPlayer
	}
	if p.ColorSlot == slot {
		s.emit.To(id, EventSelectColor, ColorChoice{Color: slot})
		return slot, nil
	}
	if slot < 0 || slot >= s.opts.NumColors {
		s.emit.To(id, EventSelectColor, ColorChoice{Color: ColorNone})
		return ColorNone, ErrColorRange
	}
	for _, other := range s.players {
		if other.ColorSlot == slot {
			s.emit.To(id, EventSelectColor, ColorChoice{Color: ColorNone})
			return ColorNone, ErrColorTaken
		}
	}
	p.ColorSlot = slot
	s.emit.To(id, EventSelectColor, ColorChoice{Color: slot})
	log.Info().Str("id", id).Int("color", slot).Msg("color assigned")
	return slot, nil
}

// TurnOver ends the sender's drawing turn. Signals from anyone but the
// current drawer are dropped without touching state.
func (s *Session) TurnOver(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrawing {
		return ErrInvalidPhase
	}
	if s.currentDrawerLocked() != id {
		return ErrNotDrawer
	}
	s.endTurnLocked()
	return nil
}

// CastVote records one vote for another player. A repeat vote replaces
// the previous one, so a confused client cannot wedge the phase. Once
// every remaining player has voted the tally resolves and the full
// breakdown is broadcast.
func (s *Session) CastVote(voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting || s.resolved {
		return ErrInvalidPhase
	}
	voter := s.players[voterID]
	if voter == nil {
		return ErrUnknownPlayer
	}
	target := s.players[targetID]
	if target == nil {
		return ErrUnknownPlayer
	}
	if voterID == targetID {
		return ErrSelfVote
	}
	if voter.Vote == targetID {
		return nil
	}
	if prev := s.players[voter.Vote]; prev != nil {
		prev.VoteCount--
	}
	voter.Vote = targetID
	target.VoteCount++
	log.Info().Str("voter", voterID).Str("target", targetID).Msg("vote cast")

	s.maybeResolveVotesLocked()
	return nil
}

// NextRound either continues with a fresh drawing pass or, when the
// bluffer was caught or has survived the final pass, finishes the game
// and resets the session to an empty lobby.
func (s *Session) NextRound(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.players[id] == nil {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseVoting {
		return ErrInvalidPhase
	}
	if !s.resolved {
		return ErrNotResolved
	}

	if s.lastResult.BlufferCaught || s.roundsCompleted >= s.opts.MaxRounds {
		found := s.lastResult.BlufferCaught
		log.Info().Bool("blufferFound", found).Int("passes", s.roundsCompleted).Msg("game finished")
		if s.opts.ExportFile != "" {
			if err := s.exportResultLocked(s.opts.ExportFile); err != nil {
				log.Error().Err(err).Str("file", s.opts.ExportFile).Msg("failed to export results")
			}
		}
		s.emit.Broadcast(EventGameFinished, GameFinished{BlufferFound: found})
		s.resetLocked()
		return nil
	}

	for _, p := range s.players {
		p.Vote = ""
		p.VoteCount = 0
	}
	s.voters = nil
	s.resolved = false
	s.lastResult = nil
	s.turnsTaken = 0
	s.drawerPos = (s.drawerPos + 1) % len(s.playerOrder)
	s.phase = PhaseDrawing
	log.Info().Int("pass", s.roundsCompleted+1).Msg("next drawing pass")
	s.emit.Broadcast(EventResetDrawing, struct{}{})
	s.signalDrawerLocked()
	return nil
}

// Chat relays a line to everyone but the sender, prefixed with the
// sender's name. The "/name <x>" command renames instead of chatting.
func (s *Session) Chat(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return
	}
	if strings.HasPrefix(text, "/name ") {
		p.Name = strings.TrimPrefix(text, "/name ")
		s.emit.BroadcastExcept(id, EventReceiveMessage, ChatMessage{Text: p.Name + " has joined!"})
		return
	}
	name := p.Name
	if name == "" {
		name = "Anon"
	}
	s.emit.BroadcastExcept(id, EventReceiveMessage, ChatMessage{Text: name + ": " + text})
}

// Draw relays a line segment to everyone but the sender, stamped with
// the sender's color slot.
func (s *Session) Draw(id string, seg LineSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[id]
	if p == nil {
		return
	}
	seg.Color = p.ColorSlot
	s.emit.BroadcastExcept(id, EventDrawing, seg)
}

// startGameLocked fires when the lobby is unanimously ready: pick a
// word and a bluffer, fix the turn order, and hand out the first turn.
func (s *Session) startGameLocked() {
	word, err := s.words.Next()
	if err != nil {
		// fatal to the round, not the process: stay in the lobby
		log.Error().Err(err).Msg("cannot start round without a word")
		return
	}

	for _, id := range s.playerOrder {
		if p := s.players[id]; p.Name == "" {
			p.Name = placeholderName()
		}
	}

	blufferID := s.playerOrder[rand.Intn(len(s.playerOrder))]
	s.players[blufferID].IsBluffer = true
	s.round = &Round{
		ID:        uuid.NewString(),
		Index:     1,
		Word:      word,
		BlufferID: blufferID,
	}
	s.gameStarted = true
	s.phase = PhaseDrawing
	s.roundsCompleted = 0
	s.turnsTaken = 0
	s.drawerPos = 0
	log.Info().Str("round", s.round.ID).Str("bluffer", blufferID).Int("players", len(s.playerOrder)).Msg("round started")

	for _, id := range s.playerOrder {
		if id == blufferID {
			s.emit.To(id, EventLobbyReady, RoundStart{Bluffer: true})
		} else {
			s.emit.To(id, EventLobbyReady, RoundStart{Word: word})
		}
	}
	s.emit.Broadcast(EventNamesColors, s.playerInfosLocked())
	s.signalDrawerLocked()
}

func (s *Session) endTurnLocked() {
	s.cancelTurnTimerLocked()
	s.turnsTaken++
	if s.turnsTaken >= len(s.playerOrder) {
		s.openVotingLocked()
		return
	}
	s.drawerPos = (s.drawerPos + 1) % len(s.playerOrder)
	s.signalDrawerLocked()
}

func (s *Session) signalDrawerLocked() {
	drawer := s.currentDrawerLocked()
	log.Info().Str("drawer", drawer).Int("turn", s.turnsTaken).Msg("drawer turn")
	s.emit.To(drawer, EventDrawerCheck, DrawerCheck{Drawer: true})
	s.startTurnTimerLocked()
}

func (s *Session) openVotingLocked() {
	s.phase = PhaseVoting
	s.roundsCompleted++
	s.voters = append([]string(nil), s.playerOrder...)
	log.Info().Int("pass", s.roundsCompleted).Msg("turn cycle exhausted, voting open")
	s.emit.Broadcast(EventGameOver, s.turnsExhaustedLocked())
}

func (s *Session) turnsExhaustedLocked() TurnsExhausted {
	names := make(map[string]string, len(s.playerOrder))
	for _, id := range s.playerOrder {
		names[id] = s.players[id].Name
	}
	return TurnsExhausted{Names: names, Order: append([]string(nil), s.playerOrder...)}
}

// maybeResolveVotesLocked tallies once every player who finished the
// pass has a recorded vote. Players who joined after voting opened may
// vote but are never waited on. Ties break toward the earliest
// ready-up.
func (s *Session) maybeResolveVotesLocked() {
	if s.phase != PhaseVoting || s.resolved || len(s.playerOrder) == 0 {
		return
	}
	for _, id := range s.voters {
		p := s.players[id]
		if p == nil {
			continue // left during voting
		}
		if p.Vote == "" {
			return
		}
	}

	counts := make(map[string]int, len(s.playerOrder))
	accused := ""
	for _, id := range s.playerOrder {
		counts[id] = s.players[id].VoteCount
		if accused == "" || counts[id] > counts[accused] {
			accused = id
		}
	}

	s.resolved = true
	s.lastResult = &VoteResult{
		Counts:        counts,
		Accused:       accused,
		BlufferID:     s.round.BlufferID,
		BlufferCaught: accused == s.round.BlufferID,
	}
	s.results = append(s.results, s.lastResult)
	log.Info().Str("accused", accused).Bool("caught", s.lastResult.BlufferCaught).Msg("votes resolved")
	s.emit.Broadcast(EventVotingComplete, s.lastResult)
}

// withdrawVotesLocked unwinds a departing player's voting footprint:
// their own vote, and any votes cast for them (those voters may vote
// again).
func (s *Session) withdrawVotesLocked(id, ownVote string) {
	if prev := s.players[ownVote]; prev != nil {
		prev.VoteCount--
	}
	for _, p := range s.players {
		if p.Vote == id {
			p.Vote = ""
		}
	}
}

// resetLocked returns the session to the empty-lobby shape. Players
// stay connected; everything round-scoped is cleared.
func (s *Session) resetLocked() {
	s.cancelTurnTimerLocked()
	for _, p := range s.players {
		p.Name = ""
		p.ColorSlot = ColorNone
		p.Ready = false
		p.IsBluffer = false
		p.Vote = ""
		p.VoteCount = 0
	}
	s.playerOrder = nil
	s.round = nil
	s.gameStarted = false
	s.phase = PhaseLobby
	s.drawerPos = 0
	s.turnsTaken = 0
	s.roundsCompleted = 0
	s.voters = nil
	s.resolved = false
	s.lastResult = nil
	s.results = nil
	log.Info().Int("connected", len(s.players)).Msg("session reset")
	s.broadcastLobbyCountLocked()
}

func (s *Session) broadcastLobbyCountLocked() {
	s.emit.Broadcast(EventLobbyNotReady, LobbyCount{Ready: len(s.playerOrder), Total: len(s.players)})
}

func (s *Session) currentDrawerLocked() string {
	if len(s.playerOrder) == 0 {
		return ""
	}
	return s.playerOrder[s.drawerPos%len(s.playerOrder)]
}

func (s *Session) lowestFreeColorLocked() (int, bool) {
	for slot := 0; slot < s.opts.NumColors; slot++ {
		taken := false
		for _, p := range s.players {
			if p.ColorSlot == slot {
				taken = true
				break
			}
		}
		if !taken {
			return slot, true
		}
	}
	return ColorNone, false
}

func (s *Session) playerInfosLocked() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		p := s.players[id]
		out = append(out, PlayerInfo{ID: p.ID, Name: p.Name, Color: p.ColorSlot})
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Phase reports the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentDrawer reports whose turn it is, or "" outside a drawing pass.
func (s *Session) CurrentDrawer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDrawing {
		return ""
	}
	return s.currentDrawerLocked()
}

// Players returns a snapshot of all connected players in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		out = append(out, *s.players[id])
	}
	return out
}

// PlayerOrder returns a copy of the current turn order.
func (s *Session) PlayerOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.playerOrder...)
}

// CurrentWord reports the round's secret word, or "" in the lobby.
func (s *Session) CurrentWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return ""
	}
	return s.round.Word
}

// Bluffer reports the bluffer's id, or "" in the lobby.
func (s *Session) Bluffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return ""
	}
	return s.round.BlufferID
}

// LastResult returns the most recent vote resolution, or nil.
func (s *Session) LastResult() *VoteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil
	}
	cp := *s.lastResult
	return &cp
}
