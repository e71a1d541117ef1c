package main

// Messages coming from clients. The websocket is already scoped to one
// room, so no payload repeats the room code.
type ClientMessage struct {
	Type        string `json:"type"`                   // "join-room", "rejoin-game", "start-game", "next-location", "make-guess", "end-round", "new-game", "leave-room"
	Name        string `json:"name,omitempty"`         // join-room / rejoin-game / leave-room
	AccusedName string `json:"accused_name,omitempty"` // make-guess
}

// PlayerView is the snapshot of a player that everyone in the room may
// see. The spy flag and connection IDs deliberately stay server-side
// while a round is live.
type PlayerView struct {
	Name    string `json:"name"`
	Creator bool   `json:"creator"`
	Points  int    `json:"points"`
	Guess   string `json:"guess,omitempty"`
	Online  bool   `json:"online"`
}

// ErrorMessage is sent only to the connection whose action failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Event   string `json:"event"`
	Key     string `json:"error_key"`
	Message string `json:"message"`
}

// AckMessage confirms an accepted action to its sender.
type AckMessage struct {
	Type    string `json:"type"` // "ack"
	Event   string `json:"event"`
	Success bool   `json:"success"`
}

// RoomCreatedMessage is the JSON body answering room creation requests.
type RoomCreatedMessage struct {
	Type     string `json:"type"` // "room-created"
	RoomCode string `json:"room_code"`
}

// WelcomeMessage answers join-room and rejoin-game with a full snapshot,
// including the caller's own role when a round is already in progress.
type WelcomeMessage struct {
	Type      string       `json:"type"` // "welcome"
	RoomCode  string       `json:"room_code"`
	Name      string       `json:"name"`
	ConnID    string       `json:"conn_id"`
	Creator   bool         `json:"creator"`
	RoundOver bool         `json:"round_over"`
	Players   []PlayerView `json:"players"`
	Role      string       `json:"role,omitempty"`
}

// PlayersMessage carries the updated roster after membership or guess
// changes: "room-state" (on connect), "player-joined", "player-rejoined",
// "player-offline", "player-left", "update-guess", "game-reset".
type PlayersMessage struct {
	Type    string       `json:"type"`
	Name    string       `json:"name,omitempty"`
	Players []PlayerView `json:"players"`
}

// RoundStartedMessage announces that a round began; roles travel
// separately per player.
type RoundStartedMessage struct {
	Type string `json:"type"` // "round-started"
}

// RoleMessage is unicast per player: non-spies receive the location,
// the spy receives the sentinel role. Type is "game-started" for a new
// round and "location-updated" for a mid-round location change.
type RoleMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Spy  bool   `json:"spy"`
}

// RoundOverMessage reveals the spy and the location once every non-spy
// has guessed, or when the round is ended early.
type RoundOverMessage struct {
	Type     string       `json:"type"` // "round-over"
	SpyName  string       `json:"spy_name,omitempty"`
	Location string       `json:"location,omitempty"`
	Players  []PlayerView `json:"players"`
}
