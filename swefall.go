// Swefall
//
// A spy-hunt party game. Players join a shared room by code; when a
// round starts, everyone but one player is shown a common location,
// drawn from a bilingual Swedish/English list. The odd one out is the
// spy. Players discuss, accuse each other, and once every non-spy has
// named a suspect the round resolves: the spy scores a point per wrong
// accusation, and correct accusers can be rewarded too.
//
// Features:
// - WebSocket per room: /play/:roomcode and /play/:roomcode/ws
// - Rooms created on demand with 6-char codes, collision-checked
// - First player into an empty room becomes its creator
// - Creator starts rounds, swaps locations, and resets the game
// - Roles are delivered per player; the spy never receives the location
// - Rejoin by name after a dropped connection, keeping score and role
// - Disconnected players keep their seat for a configurable grace period
// - Per-connection rate limiting on game actions
// - Rooms auto-reaped after a configurable idle timeout
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	mrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// actionLimiter rejects actions arriving closer together than interval.
// It belongs to the connection, not the room: a throttled client does
// not slow the game down for anyone else.
type actionLimiter struct {
	interval time.Duration
	last     time.Time
}

func (l *actionLimiter) allow(now time.Time) bool {
	if l.interval <= 0 {
		return true
	}
	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return false
	}
	l.last = now
	return true
}

type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string
	limit  actionLimiter
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

// Hub is the connection gateway for one room: it owns the client set
// and a run loop that applies every inbound event to the Room one at a
// time. The mutex exists for the registry's reaper and the removal
// timers; the run loop is the only writer of game state.
type Hub struct {
	code string
	cfg  *Config
	reg  *Registry

	room    *Room
	clients map[*Client]bool

	register chan *Client
	detach   chan *Client
	commands chan inbound

	done     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newHub(code string, reg *Registry) *Hub {
	now := time.Now()
	return &Hub{
		code:       code,
		cfg:        reg.cfg,
		reg:        reg,
		room:       newRoom(code, policiesFromConfig(reg.cfg), mrand.New(mrand.NewSource(now.UnixNano()))),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		detach:     make(chan *Client),
		commands:   make(chan inbound),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			// Snapshot so the client can render the lobby before joining.
			h.sendLocked(c, PlayersMessage{
				Type:    "room-state",
				Players: h.room.views(),
			})
			h.mu.Unlock()

		case c := <-h.detach:
			h.drop(c)

		case in := <-h.commands:
			h.handle(in)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) handle(in inbound) {
	c, msg := in.client, in.msg

	h.mu.Lock()
	h.lastActive = time.Now()

	if !c.limit.allow(time.Now()) {
		h.sendErrorLocked(c, msg.Type, errRateLimited)
		h.mu.Unlock()
		return
	}

	checkEmpty := false

	switch msg.Type {
	case "join-room":
		h.handleJoinLocked(c, msg)
	case "rejoin-game":
		h.handleRejoinLocked(c, msg)
	case "start-game":
		h.handleStartLocked(c)
	case "next-location":
		h.handleNextLocationLocked(c)
	case "make-guess":
		h.handleGuessLocked(c, msg)
	case "end-round":
		h.handleEndRoundLocked(c)
	case "new-game":
		h.handleResetLocked(c)
	case "leave-room":
		checkEmpty = h.handleLeaveLocked(c, msg)
	}

	h.mu.Unlock()

	if checkEmpty {
		h.reg.removeIfEmpty(h.code)
	}
}

// sendLocked delivers to a single client, dropping the client if its
// send buffer is full. Clients already dropped from the set are
// skipped, so handlers may keep addressing a client after an earlier
// send evicted it. Assumes h.mu is held.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) broadcastOthersLocked(c *Client, msg any) {
	for client := range h.clients {
		if client == c {
			continue
		}
		h.sendLocked(client, msg)
	}
}

func (h *Hub) sendErrorLocked(c *Client, event string, err error) {
	key, message := gameError(err)
	h.sendLocked(c, ErrorMessage{
		Type:    "error",
		Event:   event,
		Key:     key,
		Message: message,
	})
}

func (h *Hub) ackLocked(c *Client, event string) {
	h.sendLocked(c, AckMessage{
		Type:    "ack",
		Event:   event,
		Success: true,
	})
}

// sendRolesLocked unicasts each seated player their own role view. The
// spy only ever sees the sentinel; the location never rides a broadcast
// while the round is live.
func (h *Hub) sendRolesLocked(event string) {
	for client := range h.clients {
		p := h.room.playerByConn(client.connID)
		if p == nil {
			continue
		}
		h.sendLocked(client, RoleMessage{
			Type: event,
			Role: h.room.roleFor(p),
			Spy:  p.Spy,
		})
	}
}

func (h *Hub) roundOverLocked(result *RoundResult) {
	h.broadcastLocked(RoundOverMessage{
		Type:     "round-over",
		SpyName:  result.SpyName,
		Location: string(result.Location),
		Players:  h.room.views(),
	})
}

func (h *Hub) handleJoinLocked(c *Client, msg ClientMessage) {
	if msg.Name == "" {
		return
	}

	p, err := h.room.join(c.connID, msg.Name)
	if err != nil {
		h.sendErrorLocked(c, msg.Type, err)
		return
	}

	h.sendLocked(c, WelcomeMessage{
		Type:      "welcome",
		RoomCode:  h.code,
		Name:      p.Name,
		ConnID:    p.ConnID,
		Creator:   p.Creator,
		RoundOver: h.room.roundOver,
		Players:   h.room.views(),
		Role:      h.room.roleFor(p),
	})

	h.broadcastLocked(PlayersMessage{
		Type:    "player-joined",
		Name:    p.Name,
		Players: h.room.views(),
	})

	logf(h.cfg, "GAME: Player %q joined %s", p.Name, h.code)
}

func (h *Hub) handleRejoinLocked(c *Client, msg ClientMessage) {
	if msg.Name == "" {
		return
	}

	p, err := h.room.rejoin(c.connID, msg.Name)
	if err != nil {
		h.sendErrorLocked(c, msg.Type, err)
		return
	}

	h.sendLocked(c, WelcomeMessage{
		Type:      "welcome",
		RoomCode:  h.code,
		Name:      p.Name,
		ConnID:    p.ConnID,
		Creator:   p.Creator,
		RoundOver: h.room.roundOver,
		Players:   h.room.views(),
		Role:      h.room.roleFor(p),
	})

	h.broadcastOthersLocked(c, PlayersMessage{
		Type:    "player-rejoined",
		Name:    p.Name,
		Players: h.room.views(),
	})

	logf(h.cfg, "GAME: Player %q rejoined %s", p.Name, h.code)
}

func (h *Hub) handleStartLocked(c *Client) {
	if err := h.room.startRound(c.connID); err != nil {
		h.sendErrorLocked(c, "start-game", err)
		return
	}

	h.broadcastLocked(RoundStartedMessage{Type: "round-started"})
	h.sendRolesLocked("game-started")
	h.ackLocked(c, "start-game")

	logf(h.cfg, "GAME: Round started in %s with %d players", h.code, len(h.room.players))
}

func (h *Hub) handleNextLocationLocked(c *Client) {
	if err := h.room.nextLocation(c.connID); err != nil {
		h.sendErrorLocked(c, "next-location", err)
		return
	}

	h.sendRolesLocked("location-updated")
	h.ackLocked(c, "next-location")
}

func (h *Hub) handleGuessLocked(c *Client, msg ClientMessage) {
	if msg.AccusedName == "" {
		return
	}

	if _, err := h.room.submitGuess(c.connID, msg.AccusedName); err != nil {
		h.sendErrorLocked(c, msg.Type, err)
		return
	}

	// Guesses are public as they land; the roster goes out before
	// resolution wipes them.
	h.broadcastLocked(PlayersMessage{
		Type:    "update-guess",
		Players: h.room.views(),
	})

	if result := h.room.maybeResolve(); result != nil {
		h.roundOverLocked(result)
		logf(h.cfg, "GAME: Round resolved in %s, spy was %q", h.code, result.SpyName)
	}

	h.ackLocked(c, "make-guess")
}

func (h *Hub) handleEndRoundLocked(c *Client) {
	result, err := h.room.endRound(c.connID)
	if err != nil {
		h.sendErrorLocked(c, "end-round", err)
		return
	}

	h.roundOverLocked(result)
	h.ackLocked(c, "end-round")
}

func (h *Hub) handleResetLocked(c *Client) {
	if err := h.room.reset(c.connID); err != nil {
		h.sendErrorLocked(c, "new-game", err)
		return
	}

	h.broadcastLocked(PlayersMessage{
		Type:    "game-reset",
		Players: h.room.views(),
	})
	h.ackLocked(c, "new-game")

	logf(h.cfg, "GAME: Game reset in %s", h.code)
}

// handleLeaveLocked removes a player and reports whether the room may
// now be empty. The leaver's own connection is shut down once the ack
// has been queued.
func (h *Hub) handleLeaveLocked(c *Client, msg ClientMessage) bool {
	name := msg.Name
	if name == "" {
		if p := h.room.playerByConn(c.connID); p != nil {
			name = p.Name
		}
	}

	out, err := h.room.leave(name)
	if err != nil {
		h.sendErrorLocked(c, msg.Type, err)
		return false
	}

	h.ackLocked(c, "leave-room")

	h.broadcastLocked(PlayersMessage{
		Type:    "player-left",
		Name:    out.Removed.Name,
		Players: h.room.views(),
	})

	if out.Ended != nil {
		h.roundOverLocked(out.Ended)
	}

	for client := range h.clients {
		if client.connID == out.Removed.ConnID {
			delete(h.clients, client)
			close(client.send)
		}
	}

	logf(h.cfg, "GAME: Player %q left %s", out.Removed.Name, h.code)

	return true
}

// drop handles a vanished connection: the seat survives, marked
// offline, so the player can rejoin by name within the grace period.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	p := h.room.markOffline(c.connID)
	if p != nil {
		h.lastActive = time.Now()
		h.broadcastLocked(PlayersMessage{
			Type:    "player-offline",
			Name:    p.Name,
			Players: h.room.views(),
		})
	}

	h.mu.Unlock()

	if p != nil && h.cfg.playerTimeout > 0 {
		go h.scheduleRemoval(p.Name, h.cfg.playerTimeout)
	}
}

// scheduleRemoval waits for d, and if the named player has not
// reconnected by then, removes their seat and broadcasts the updated
// roster.
func (h *Hub) scheduleRemoval(name string, d time.Duration) {
	time.Sleep(d)

	h.mu.Lock()

	p := h.room.playerByName(name)
	if p == nil || p.Online {
		h.mu.Unlock()
		return
	}

	out, err := h.room.leave(name)
	if err != nil {
		h.mu.Unlock()
		return
	}

	h.lastActive = time.Now()

	h.broadcastLocked(PlayersMessage{
		Type:    "player-left",
		Name:    out.Removed.Name,
		Players: h.room.views(),
	})

	if out.Ended != nil {
		h.roundOverLocked(out.Ended)
	}

	h.mu.Unlock()

	logf(h.cfg, "GAME: Player %q timed out of %s", name, h.code)

	h.reg.removeIfEmpty(h.code)
}

// closeAll disconnects all clients of this hub (used by the reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket handler that attaches the connection to the room named in
// the path. Unlike the room page, this never creates rooms.
func serveWSForRegistry(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomCode := ps.ByName("roomcode")
		if roomCode == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		hub, err := reg.get(roomCode)
		if err != nil {
			http.Error(w, "room does not exist", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
			limit:  actionLimiter{interval: cfg.rateLimit},
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.detach <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join-room", "rejoin-game", "start-game", "next-location",
			"make-guess", "end-round", "new-game", "leave-room":
			select {
			case h.commands <- inbound{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// createRoomHandler answers POST /play with a fresh room code, or
// honors ?code= when that code is still free.
func createRoomHandler(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		hub, err := reg.create(r.URL.Query().Get("code"))
		if err != nil {
			key, message := gameError(err)
			status := http.StatusConflict
			if errors.Is(err, errInvalidRoomCode) {
				status = http.StatusBadRequest
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(ErrorMessage{
				Type:    "error",
				Event:   "create-room",
				Key:     key,
				Message: message,
			})
			return
		}

		_ = json.NewEncoder(w).Encode(RoomCreatedMessage{
			Type:     "room-created",
			RoomCode: hub.code,
		})
	}
}

// redirectNewRoom handles GET /play by creating a room and redirecting
// to its page.
func redirectNewRoom(cfg *Config, path string, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		hub, err := reg.create("")
		if err != nil {
			http.Error(w, "unable to create room", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, cfg.prefix+path+"/"+hub.code, http.StatusTemporaryRedirect)
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomCode := ps.ByName("roomcode")
	if roomCode == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomcode/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed assets/swefall/app.html
var indexHTML []byte

//go:embed assets/swefall/app.css
var swefallCSS []byte

//go:embed assets/swefall/app.js
var swefallJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(swefallCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(swefallJS)
	}
}

// registerSwefallGame sets up routes so that:
//   - $path                  → creates a room and redirects (GET) or
//     returns its code as JSON (POST, optional ?code=)
//   - $path/:roomcode        → HTML client
//   - $path/:roomcode/ws     → WebSocket for that room
//   - $path/:roomcode/qr     → PNG QR code for that room URL
func registerSwefallGame(cfg *Config, path string, reg *Registry, mux *httprouter.Router) {
	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, path, reg))
	mux.POST(cfg.prefix+path, createRoomHandler(cfg, reg))

	// Per-room client view (HTML)
	mux.GET(cfg.prefix+path+"/:roomcode", getIndexHandler(cfg))

	// Shared assets (no roomcode in route)
	mux.GET(cfg.prefix+"/assets/swefall/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/swefall/app.js", getJsHandler(cfg))

	// Per-room websocket
	mux.GET(cfg.prefix+path+"/:roomcode/ws", serveWSForRegistry(cfg, reg))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:roomcode/qr", qrHandler)
}
