package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby   Phase = "Lobby"
	PhaseDrawing Phase = "Drawing"
	PhaseVoting  Phase = "Voting"
)

// ColorNone marks a player without a color slot.
const ColorNone = -1

// Inbound event names, one per client action the server reacts to.
const (
	EventReadyUp     = "ready-up"
	EventUnready     = "unready"
	EventSelectColor = "select-color"
	EventSendMessage = "send-message"
	EventTurnOver    = "turn-over"
	EventVoteCast    = "vote-cast"
	EventNextRound   = "next-round"
	EventDrawing     = "drawing"
)

// Outbound event names.
const (
	EventLobbyNotReady  = "lobby-not-ready"
	EventLobbyReady     = "lobby-ready"
	EventNamesColors    = "names-colors"
	EventDrawerCheck    = "drawer-check"
	EventVotingComplete = "voting-complete"
	EventGameOver       = "game-over"
	EventGameFinished   = "game-finished"
	EventResetDrawing   = "reset-drawingOver"
	EventReceiveMessage = "receive-message"
)

// Player is one live connection's state, keyed by connection id.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ColorSlot int       `json:"colorSlot"`
	Ready     bool      `json:"ready"`
	IsBluffer bool      `json:"-"`
	Vote      string    `json:"-"`
	VoteCount int       `json:"-"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Round is the state fixed when a lobby becomes unanimous: the secret
// word and who bluffs. It survives next-round continuations until the
// game finishes.
type Round struct {
	ID        string
	Index     int
	Word      string
	BlufferID string
}

// LobbyCount is the "N of M ready" broadcast payload.
type LobbyCount struct {
	Ready int `json:"ready"`
	Total int `json:"total"`
}

// RoundStart tells one player the round began. The bluffer gets an
// empty word and Bluffer set; everyone else gets the word.
type RoundStart struct {
	Word    string `json:"word"`
	Bluffer bool   `json:"bluffer"`
}

// PlayerInfo is one entry of the names-colors broadcast.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// ColorChoice echoes a color selection back to the requester. Color is
// ColorNone when the request was rejected.
type ColorChoice struct {
	Color int `json:"color"`
}

// DrawerCheck gates drawing: sent with Drawer true only to the player
// whose turn it is.
type DrawerCheck struct {
	Drawer bool `json:"drawer"`
}

// VoteResult is the full breakdown broadcast once every player voted.
type VoteResult struct {
	Counts        map[string]int `json:"counts"`
	Accused       string         `json:"accused"`
	BlufferID     string         `json:"blufferId"`
	BlufferCaught bool           `json:"blufferCaught"`
}

// TurnsExhausted announces the end of a drawing pass and opens voting.
type TurnsExhausted struct {
	Names map[string]string `json:"names"`
	Order []string          `json:"order"`
}

// GameFinished is the terminal broadcast before the session resets.
type GameFinished struct {
	BlufferFound bool `json:"blufferFound"`
}

// ChatMessage carries one formatted chat line.
type ChatMessage struct {
	Text string `json:"text"`
}

// LineSegment is one drawn stroke segment, unit-normalized. The server
// stamps Color with the sender's slot before relaying.
type LineSegment struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color int     `json:"color"`
}
