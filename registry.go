package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// Room codes use the original swefall alphabet (no W, no lowercase) so
// they stay easy to read out loud across the table.
const (
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVXYZ0123456789"
	roomCodeLength = 6
)

// Registry owns the code→room mapping. Each room is backed by a Hub
// whose run loop serializes all game mutation; the Registry only
// creates, finds, and tears down hubs.
//
// Lock order is Registry.mu before Hub.mu. Hub handlers must release
// their own lock before calling back into the Registry.
type Registry struct {
	mu   sync.Mutex
	cfg  *Config
	hubs map[string]*Hub
}

func newRegistry(cfg *Config) *Registry {
	reg := &Registry{
		cfg:  cfg,
		hubs: make(map[string]*Hub),
	}
	if cfg.sessionTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// create inserts a new empty room. A non-empty desiredCode is honored
// when well-formed and free; otherwise a fresh code is generated,
// retrying on the rare collision against live rooms.
func (reg *Registry) create(desiredCode string) (*Hub, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := desiredCode
	if code != "" {
		if !validRoomCode(code) {
			return nil, errInvalidRoomCode
		}
		if _, exists := reg.hubs[code]; exists {
			return nil, errRoomCodeExists
		}
	} else {
		for {
			code = randomRoomCode(roomCodeLength)
			if _, exists := reg.hubs[code]; !exists {
				break
			}
		}
	}

	hub := newHub(code, reg)
	reg.hubs[code] = hub
	go hub.run()

	logf(reg.cfg, "ROOMS: Created room %s", code)

	return hub, nil
}

func (reg *Registry) get(code string) (*Hub, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	hub, ok := reg.hubs[code]
	if !ok {
		return nil, errRoomNotFound
	}
	return hub, nil
}

// removeIfEmpty drops the room if its player list is empty. Idempotent,
// quiet on unknown codes.
func (reg *Registry) removeIfEmpty(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	hub, ok := reg.hubs[code]
	if !ok {
		return
	}

	hub.mu.RLock()
	empty := hub.room.empty()
	hub.mu.RUnlock()

	if !empty {
		return
	}

	delete(reg.hubs, code)
	hub.stop()

	logf(reg.cfg, "ROOMS: Removed empty room %s", code)
}

// reaperLoop periodically removes rooms that have been idle longer than
// the configured session timeout.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.sessionTimeout)

		reg.mu.Lock()
		for code, hub := range reg.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(reg.hubs, code)
				hub.stop()

				logf(reg.cfg, "ROOMS: Reaped idle room %s after %s", code, time.Since(hub.createdAt).Round(time.Second))
			}
		}
		reg.mu.Unlock()
	}
}

// validRoomCode accepts exactly the codes this registry would generate
// itself, so client-chosen codes always fit the room URL and page.
func validRoomCode(code string) bool {
	if len(code) != roomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(roomCodeChars, code[i]) == -1 {
			return false
		}
	}
	return true
}

func randomRoomCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, n)
	for i := range out {
		out[i] = roomCodeChars[int(buf[i])%len(roomCodeChars)]
	}
	return string(out)
}
