package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicies() roomPolicies {
	return roomPolicies{
		minPlayers:     3,
		rewardAccusers: true,
	}
}

func testRoom(t *testing.T, pol roomPolicies, names ...string) *Room {
	t.Helper()

	r := newRoom("AB12CD", pol, rand.New(rand.NewSource(1)))
	for i, name := range names {
		_, err := r.join(fmt.Sprintf("conn-%d", i+1), name)
		require.NoError(t, err)
	}
	return r
}

func nonSpies(r *Room) []*Player {
	out := []*Player{}
	for _, p := range r.players {
		if !p.Spy {
			out = append(out, p)
		}
	}
	return out
}

func TestJoinOrderAndCreator(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")

	views := r.views()
	require.Len(t, views, 3)
	assert.Equal(t, "ALICE", views[0].Name)
	assert.Equal(t, "BOB", views[1].Name)
	assert.Equal(t, "CAROL", views[2].Name)

	assert.True(t, views[0].Creator)
	assert.False(t, views[1].Creator)
	assert.False(t, views[2].Creator)

	for _, v := range views {
		assert.Zero(t, v.Points)
		assert.Empty(t, v.Guess)
		assert.True(t, v.Online)
	}

	assert.True(t, r.roundOver)
}

func TestJoinNameTaken(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE")

	_, err := r.join("conn-9", "ALICE")
	assert.ErrorIs(t, err, errNameTaken)
	assert.Len(t, r.players, 1)
	assert.Equal(t, "conn-1", r.players[0].ConnID)
}

func TestJoinNamesAreCaseSensitive(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE")

	_, err := r.join("conn-9", "alice")
	require.NoError(t, err)
	assert.Len(t, r.players, 2)
}

func TestRejoin(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	bob := r.playerByName("BOB")
	bob.Points = 4
	bob.Online = false

	p, err := r.rejoin("conn-9", "BOB")
	require.NoError(t, err)
	assert.Equal(t, "conn-9", p.ConnID)
	assert.Equal(t, 4, p.Points)
	assert.True(t, p.Online)
	assert.False(t, p.Creator)

	_, err = r.rejoin("conn-10", "MALLORY")
	assert.ErrorIs(t, err, errPlayerNotFound)
}

func TestRejoinPreservesRoleMidRound(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	require.NotNil(t, spy)

	p, err := r.rejoin("conn-9", spy.Name)
	require.NoError(t, err)
	assert.True(t, p.Spy)
	assert.Equal(t, string(spyRole), r.roleFor(p))
}

func TestStartRoundAssignsExactlyOneSpy(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL", "DAVE")

	for round := 0; round < 20; round++ {
		require.NoError(t, r.startRound("conn-1"))

		spies := 0
		for _, p := range r.players {
			if p.Spy {
				spies++
			}
			assert.Empty(t, p.Guess)
		}
		assert.Equal(t, 1, spies)
		assert.False(t, r.roundOver)
		assert.NotEmpty(t, r.location)
	}
}

func TestStartRoundErrors(t *testing.T) {
	testCases := []struct {
		name     string
		players  []string
		connID   string
		expected error
	}{
		{
			name:     "unknown connection",
			players:  []string{"ALICE", "BOB", "CAROL"},
			connID:   "conn-99",
			expected: errPlayerNotFound,
		},
		{
			name:     "not the creator",
			players:  []string{"ALICE", "BOB", "CAROL"},
			connID:   "conn-2",
			expected: errNotCreator,
		},
		{
			name:     "not enough players",
			players:  []string{"ALICE", "BOB"},
			connID:   "conn-1",
			expected: errNotEnoughPlayers,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRoom(t, defaultPolicies(), tc.players...)

			err := r.startRound(tc.connID)
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, r.roundOver)
			assert.Nil(t, r.spy())
		})
	}
}

func TestRoleTrustBoundary(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL", "DAVE")
	require.NoError(t, r.startRound("conn-1"))

	for _, p := range r.players {
		role := r.roleFor(p)
		if p.Spy {
			assert.Equal(t, string(spyRole), role)
			assert.NotEqual(t, string(r.location), role)
		} else {
			assert.Equal(t, string(r.location), role)
		}
	}
}

func TestMidRoundJoinerSeesLocation(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	p, err := r.join("conn-9", "DAVE")
	require.NoError(t, err)
	assert.False(t, p.Spy)
	assert.Equal(t, string(r.location), r.roleFor(p))
}

func TestResolutionAllIncorrect(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	others := nonSpies(r)
	require.Len(t, others, 2)

	// Everyone accuses a non-spy.
	for _, p := range others {
		wrong := others[0].Name
		if wrong == p.Name {
			wrong = others[1].Name
		}
		_, err := r.submitGuess(p.ConnID, wrong)
		require.NoError(t, err)
	}

	result := r.maybeResolve()
	require.NotNil(t, result)
	assert.True(t, result.Scored)
	assert.Equal(t, spy.Name, result.SpyName)
	assert.Equal(t, 2, spy.Points)
	for _, p := range others {
		assert.Zero(t, p.Points)
	}
	assert.True(t, r.roundOver)
	for _, p := range r.players {
		assert.Empty(t, p.Guess)
	}
}

func TestResolutionAllCorrect(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	for _, p := range nonSpies(r) {
		_, err := r.submitGuess(p.ConnID, spy.Name)
		require.NoError(t, err)
	}

	result := r.maybeResolve()
	require.NotNil(t, result)
	assert.Zero(t, spy.Points)
	for _, p := range nonSpies(r) {
		assert.Equal(t, 1, p.Points)
	}
}

func TestResolutionWithoutAccuserReward(t *testing.T) {
	pol := defaultPolicies()
	pol.rewardAccusers = false
	r := testRoom(t, pol, "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	for _, p := range nonSpies(r) {
		_, err := r.submitGuess(p.ConnID, spy.Name)
		require.NoError(t, err)
	}

	require.NotNil(t, r.maybeResolve())
	for _, p := range r.players {
		assert.Zero(t, p.Points)
	}
}

func TestResolutionWaitsForAllNonSpies(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	others := nonSpies(r)
	_, err := r.submitGuess(others[0].ConnID, others[1].Name)
	require.NoError(t, err)

	assert.Nil(t, r.maybeResolve())
	assert.False(t, r.roundOver)
	assert.Equal(t, others[1].Name, others[0].Guess)
}

func TestResolutionIsIdempotent(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	for _, p := range nonSpies(r) {
		_, err := r.submitGuess(p.ConnID, "NOBODY")
		require.NoError(t, err)
	}

	require.NotNil(t, r.maybeResolve())
	points := spy.Points

	assert.Nil(t, r.maybeResolve())
	assert.Equal(t, points, spy.Points)
}

func TestGuessOverwrite(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	p := nonSpies(r)[0]
	_, err := r.submitGuess(p.ConnID, "BOB")
	require.NoError(t, err)
	_, err = r.submitGuess(p.ConnID, "CAROL")
	require.NoError(t, err)
	assert.Equal(t, "CAROL", p.Guess)

	_, err = r.submitGuess("conn-99", "ALICE")
	assert.ErrorIs(t, err, errPlayerNotFound)
}

func TestEndRound(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")

	// Nothing to end before a round starts, and nothing stale to reveal.
	_, err := r.endRound("conn-1")
	assert.ErrorIs(t, err, errNoActiveRound)

	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	_, err = r.submitGuess(nonSpies(r)[0].ConnID, "BOB")
	require.NoError(t, err)

	// Any player may end a round, not just the creator.
	result, err := r.endRound("conn-2")
	require.NoError(t, err)
	assert.False(t, result.Scored)
	assert.Equal(t, spy.Name, result.SpyName)
	assert.Equal(t, r.location, result.Location)
	assert.True(t, r.roundOver)
	for _, p := range r.players {
		assert.Empty(t, p.Guess)
		assert.Zero(t, p.Points)
	}
}

func TestReset(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	r.playerByName("BOB").Points = 3

	assert.ErrorIs(t, r.reset("conn-2"), errNotCreator)

	require.NoError(t, r.reset("conn-1"))
	assert.True(t, r.roundOver)
	for _, p := range r.players {
		assert.Zero(t, p.Points)
		assert.False(t, p.Spy)
		assert.Empty(t, p.Guess)
	}
}

func TestUniqueLocationsExhaustAndReset(t *testing.T) {
	pol := roomPolicies{minPlayers: 1, uniqueLocations: true}
	r := testRoom(t, pol, "ALICE")

	seen := make(map[Location]bool)
	for i := 0; i < len(locations); i++ {
		require.NoError(t, r.startRound("conn-1"))
		assert.False(t, seen[r.location])
		seen[r.location] = true
	}

	assert.ErrorIs(t, r.startRound("conn-1"), errNoLocationsLeft)

	require.NoError(t, r.reset("conn-1"))
	assert.NoError(t, r.startRound("conn-1"))
}

func TestNextLocation(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")

	assert.ErrorIs(t, r.nextLocation("conn-1"), errNoActiveRound)

	require.NoError(t, r.startRound("conn-1"))
	spy := r.spy()

	assert.ErrorIs(t, r.nextLocation("conn-2"), errNotCreator)

	require.NoError(t, r.nextLocation("conn-1"))
	assert.Same(t, spy, r.spy())
	assert.False(t, r.roundOver)
}

func TestLeavePromotesNextCreator(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")

	out, err := r.leave("ALICE")
	require.NoError(t, err)
	assert.Equal(t, "ALICE", out.Removed.Name)
	require.NotNil(t, out.Promoted)
	assert.Equal(t, "BOB", out.Promoted.Name)

	views := r.views()
	require.Len(t, views, 2)
	assert.Equal(t, "BOB", views[0].Name)
	assert.True(t, views[0].Creator)
	assert.Equal(t, "CAROL", views[1].Name)
	assert.False(t, views[1].Creator)
}

func TestLeaveUnknownName(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE")

	_, err := r.leave("MALLORY")
	assert.ErrorIs(t, err, errPlayerNotFound)
	assert.Len(t, r.players, 1)
}

func TestLeavingSpyEndsRoundUnscored(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	out, err := r.leave(spy.Name)
	require.NoError(t, err)
	require.NotNil(t, out.Ended)
	assert.False(t, out.Ended.Scored)
	assert.Equal(t, spy.Name, out.Ended.SpyName)
	assert.True(t, r.roundOver)
	for _, p := range r.players {
		assert.Zero(t, p.Points)
	}
}

func TestLeaveCompletesPendingResolution(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL", "DAVE")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	others := nonSpies(r)
	require.Len(t, others, 3)

	// Two of three non-spies accuse the spy; the third walks out.
	_, err := r.submitGuess(others[0].ConnID, spy.Name)
	require.NoError(t, err)
	_, err = r.submitGuess(others[1].ConnID, spy.Name)
	require.NoError(t, err)

	out, err := r.leave(others[2].Name)
	require.NoError(t, err)
	require.NotNil(t, out.Ended)
	assert.True(t, out.Ended.Scored)
	assert.True(t, r.roundOver)
	assert.Zero(t, spy.Points)
	assert.Equal(t, 1, others[0].Points)
	assert.Equal(t, 1, others[1].Points)
}

func TestMarkOffline(t *testing.T) {
	r := testRoom(t, defaultPolicies(), "ALICE", "BOB", "CAROL")

	p := r.markOffline("conn-2")
	require.NotNil(t, p)
	assert.Equal(t, "BOB", p.Name)
	assert.False(t, p.Online)
	assert.Len(t, r.players, 3)

	assert.Nil(t, r.markOffline("conn-99"))

	rejoined, err := r.rejoin("conn-9", "BOB")
	require.NoError(t, err)
	assert.True(t, rejoined.Online)
}

func TestTwoPlayerRoundResolvesOnSingleGuess(t *testing.T) {
	pol := roomPolicies{minPlayers: 2, rewardAccusers: true}
	r := testRoom(t, pol, "ALICE", "BOB")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	accuser := nonSpies(r)[0]

	_, err := r.submitGuess(accuser.ConnID, spy.Name)
	require.NoError(t, err)

	result := r.maybeResolve()
	require.NotNil(t, result)
	assert.True(t, r.roundOver)
	assert.Zero(t, spy.Points)
	assert.Equal(t, 1, accuser.Points)
}

func TestSoloSpyResolvesWithoutPoints(t *testing.T) {
	pol := roomPolicies{minPlayers: 1, rewardAccusers: true}
	r := testRoom(t, pol, "ALICE")
	require.NoError(t, r.startRound("conn-1"))

	spy := r.spy()
	require.NotNil(t, spy)

	// With no non-spies there is nothing to wait for.
	_, err := r.submitGuess(spy.ConnID, "NOBODY")
	require.NoError(t, err)

	result := r.maybeResolve()
	require.NotNil(t, result)
	assert.Zero(t, spy.Points)
	assert.True(t, r.roundOver)
}
