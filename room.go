package main

import (
	"math/rand"
)

// Player holds the data we store server-side. ConnID tracks the current
// live connection and is rebound on rejoin, so a dropped player keeps
// their name, score, and role.
type Player struct {
	ConnID  string
	Name    string
	Creator bool
	Points  int
	Spy     bool
	Guess   string
	Online  bool
}

type roomPolicies struct {
	minPlayers      int
	rewardAccusers  bool
	uniqueLocations bool
}

func policiesFromConfig(cfg *Config) roomPolicies {
	return roomPolicies{
		minPlayers:      cfg.minPlayers,
		rewardAccusers:  cfg.rewardAccusers,
		uniqueLocations: cfg.uniqueLocations,
	}
}

// Room is one game session: the ordered player list plus the state of
// the current round. All methods are invoked from the owning hub's run
// loop, one event at a time, so none of them lock.
type Room struct {
	code      string
	policies  roomPolicies
	rng       *rand.Rand
	players   []*Player
	location  Location
	roundOver bool
	deck      *locationDeck
}

// RoundResult describes a concluded round: who the spy was, where
// everyone else had been, and whether points were handed out.
type RoundResult struct {
	SpyName  string
	Location Location
	Scored   bool
}

func newRoom(code string, pol roomPolicies, rng *rand.Rand) *Room {
	r := &Room{
		code:      code,
		policies:  pol,
		rng:       rng,
		roundOver: true,
	}
	if pol.uniqueLocations {
		r.deck = newLocationDeck(rng)
	}
	return r
}

func (r *Room) playerByConn(connID string) *Player {
	for _, p := range r.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) spy() *Player {
	for _, p := range r.players {
		if p.Spy {
			return p
		}
	}
	return nil
}

func (r *Room) empty() bool {
	return len(r.players) == 0
}

// views renders the roster for broadcast. Spy flags never appear here;
// the spy is only revealed through RoundOverMessage.
func (r *Room) views() []PlayerView {
	out := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, PlayerView{
			Name:    p.Name,
			Creator: p.Creator,
			Points:  p.Points,
			Guess:   p.Guess,
			Online:  p.Online,
		})
	}
	return out
}

// roleFor is the per-player role payload: the location for regulars,
// the sentinel for the spy, empty outside a round.
func (r *Room) roleFor(p *Player) string {
	if r.roundOver {
		return ""
	}
	if p.Spy {
		return string(spyRole)
	}
	return string(r.location)
}

// join appends a new player. The first player into an empty room
// becomes its creator. Names are case-sensitive and unique per room.
func (r *Room) join(connID, name string) (*Player, error) {
	if r.playerByName(name) != nil {
		return nil, errNameTaken
	}

	p := &Player{
		ConnID:  connID,
		Name:    name,
		Creator: r.empty(),
		Online:  true,
	}
	r.players = append(r.players, p)

	return p, nil
}

// rejoin rebinds an existing player to a new connection, leaving score,
// role, and guess untouched so a client can resume mid-round.
func (r *Room) rejoin(connID, name string) (*Player, error) {
	p := r.playerByName(name)
	if p == nil {
		return nil, errPlayerNotFound
	}

	p.ConnID = connID
	p.Online = true

	return p, nil
}

// startRound begins a new round: one location, one spy, all guesses
// cleared. Only the creator may start, and only with enough players.
func (r *Room) startRound(connID string) error {
	p := r.playerByConn(connID)
	if p == nil {
		return errPlayerNotFound
	}
	if !p.Creator {
		return errNotCreator
	}
	if len(r.players) < r.policies.minPlayers {
		return errNotEnoughPlayers
	}

	loc, err := r.drawLocation()
	if err != nil {
		return err
	}

	for _, q := range r.players {
		q.Spy = false
		q.Guess = ""
	}

	r.location = loc
	r.players[r.rng.Intn(len(r.players))].Spy = true
	r.roundOver = false

	return nil
}

// nextLocation swaps the location mid-round without reassigning the spy.
func (r *Room) nextLocation(connID string) error {
	p := r.playerByConn(connID)
	if p == nil {
		return errPlayerNotFound
	}
	if !p.Creator {
		return errNotCreator
	}
	if r.roundOver {
		return errNoActiveRound
	}

	loc, err := r.drawLocation()
	if err != nil {
		return err
	}
	r.location = loc

	return nil
}

func (r *Room) drawLocation() (Location, error) {
	if r.deck != nil {
		return r.deck.draw()
	}
	return locations[r.rng.Intn(len(locations))], nil
}

// submitGuess records an accusation, overwriting any earlier one by the
// same player. The caller broadcasts the updated guesses and then runs
// maybeResolve, so the room sees the final guess before points land.
func (r *Room) submitGuess(connID, accusedName string) (*Player, error) {
	p := r.playerByConn(connID)
	if p == nil {
		return nil, errPlayerNotFound
	}

	p.Guess = accusedName

	return p, nil
}

// maybeResolve concludes the round once every non-spy holds a guess.
// The spy earns a point per wrong accusation; correct accusers earn one
// each when the room is configured that way. Resolution runs at most
// once per round: it flips roundOver and clears the guesses it counted.
func (r *Room) maybeResolve() *RoundResult {
	if r.roundOver || r.empty() {
		return nil
	}

	for _, p := range r.players {
		if !p.Spy && p.Guess == "" {
			return nil
		}
	}

	spy := r.spy()
	if spy == nil {
		return nil
	}

	incorrect := 0
	for _, p := range r.players {
		if p.Spy {
			continue
		}
		if p.Guess != spy.Name {
			incorrect++
		}
	}

	spy.Points += incorrect

	if r.policies.rewardAccusers {
		for _, p := range r.players {
			if !p.Spy && p.Guess == spy.Name {
				p.Points++
			}
		}
	}

	r.roundOver = true
	for _, p := range r.players {
		p.Guess = ""
	}

	return &RoundResult{
		SpyName:  spy.Name,
		Location: r.location,
		Scored:   true,
	}
}

// endRound concludes the active round without scoring, revealing
// whatever spy and location were in play. Any player may end a round.
func (r *Room) endRound(connID string) (*RoundResult, error) {
	p := r.playerByConn(connID)
	if p == nil {
		return nil, errPlayerNotFound
	}
	if r.roundOver {
		return nil, errNoActiveRound
	}

	result := &RoundResult{Location: r.location}
	if spy := r.spy(); spy != nil {
		result.SpyName = spy.Name
	}

	r.roundOver = true
	for _, q := range r.players {
		q.Guess = ""
	}

	return result, nil
}

// reset starts the game over: zero scores, no round, and a reshuffled
// deck for no-repeat rooms.
func (r *Room) reset(connID string) error {
	p := r.playerByConn(connID)
	if p == nil {
		return errPlayerNotFound
	}
	if !p.Creator {
		return errNotCreator
	}

	for _, q := range r.players {
		q.Points = 0
		q.Spy = false
		q.Guess = ""
	}
	r.roundOver = true

	if r.policies.uniqueLocations {
		r.deck = newLocationDeck(r.rng)
	}

	return nil
}

// LeaveOutcome reports the side effects of a departure: creator
// privileges may move, and a round may conclude, either because the spy
// walked out (unscored) or because the departure left every remaining
// non-spy with a submitted guess (scored as usual).
type LeaveOutcome struct {
	Removed  *Player
	Promoted *Player
	Ended    *RoundResult
}

// leave removes a player by name, preserving join order of the rest.
func (r *Room) leave(name string) (*LeaveOutcome, error) {
	idx := -1
	for i, p := range r.players {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, errPlayerNotFound
	}

	out := &LeaveOutcome{Removed: r.players[idx]}
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if out.Removed.Creator && !r.empty() {
		r.players[0].Creator = true
		out.Promoted = r.players[0]
	}

	if !r.roundOver {
		if out.Removed.Spy {
			// No recovery for a vanished spy; close the round unscored.
			out.Ended = &RoundResult{
				SpyName:  out.Removed.Name,
				Location: r.location,
			}
			r.roundOver = true
			for _, p := range r.players {
				p.Guess = ""
			}
		} else {
			out.Ended = r.maybeResolve()
		}
	}

	return out, nil
}

// markOffline flags the player behind a dropped connection. The entry
// stays for rejoin-by-name until the player timeout expires.
func (r *Room) markOffline(connID string) *Player {
	p := r.playerByConn(connID)
	if p == nil {
		return nil
	}
	p.Online = false
	return p
}
