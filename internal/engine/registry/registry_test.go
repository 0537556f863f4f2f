package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/scoring"
)

var testChallenge = catalog.ChallengeCard{
	ID:   "ch-1",
	Tags: []string{"vision", "decision"},
}

func TestRegistry_AddAssignsSeatsInOrder(t *testing.T) {
	r := New()
	p1 := r.Add("p1", "Alice", false)
	p2 := r.Add("p2", "Bob", false)

	assert.Equal(t, 0, p1.Seat)
	assert.Equal(t, 1, p2.Seat)
	assert.Equal(t, 2, r.Len())

	// duplicate add returns existing seat
	again := r.Add("p1", "Alice", false)
	assert.Same(t, p1, again)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RemoveCompactsSeats(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)
	r.Add("p2", "Bob", false)
	r.Add("p3", "Carol", false)

	r.Remove("p1")

	p2, err := r.Get("p2")
	assert.NoError(t, err)
	assert.Equal(t, 0, p2.Seat)

	_, err = r.Get("p1")
	assert.ErrorIs(t, err, apperrors.ErrParticipantNotFound)
}

func TestRegistry_ApplyResultPass(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)

	res := scoring.Result{Passed: true, Points: 60}
	err := r.ApplyResult("p1", testChallenge, res, []string{"vision"})
	assert.NoError(t, err)

	p, _ := r.Get("p1")
	assert.Equal(t, 60, p.Score)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 1, p.BestStreak)
	assert.Equal(t, []string{"ch-1"}, p.Completed)
	assert.Equal(t, []string{"vision"}, p.PlayedTags)
}

func TestRegistry_ApplyResultFailResetsStreak(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)

	r.ApplyResult("p1", testChallenge, scoring.Result{Passed: true, Points: 40}, nil)
	r.ApplyResult("p1", testChallenge, scoring.Result{Passed: true, Points: 40}, nil)

	p, _ := r.Get("p1")
	assert.Equal(t, 2, p.Streak)

	err := r.ApplyResult("p1", testChallenge, scoring.Result{Passed: false}, nil)
	assert.NoError(t, err)

	assert.Equal(t, 0, p.Streak)
	assert.Equal(t, 2, p.BestStreak) // best streak survives the reset
	assert.Equal(t, 80, p.Score)     // failed challenges never subtract
	assert.Equal(t, []string{"ch-1"}, p.Failed)
	assert.Equal(t, []string{"vision", "decision"}, p.FailedTags)
}

func TestRegistry_BumpStreakTracksBest(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)

	r.BumpStreak("p1", "pair-1")
	r.BumpStreak("p1", "pair-2")
	r.ResetStreak("p1")
	r.BumpStreak("p1", "pair-3")

	p, _ := r.Get("p1")
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 2, p.BestStreak)
	assert.Len(t, p.Completed, 3)
}

func TestRegistry_RankingsTieBreak(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)
	r.Add("p2", "Bob", false)
	r.Add("p3", "Carol", false)

	// p2 and p3 tie on score; p3 has more completions.
	r.AddScore("p1", 50)
	r.AddScore("p2", 80)
	r.AddScore("p3", 80)
	r.BumpStreak("p3", "pair-1")

	rankings := r.Rankings()
	assert.Equal(t, "p3", rankings[0].ParticipantID)
	assert.Equal(t, "p2", rankings[1].ParticipantID)
	assert.Equal(t, "p1", rankings[2].ParticipantID)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 3, rankings[2].Rank)
}

func TestRegistry_RankingsFullTieUsesSeatOrder(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)
	r.Add("p2", "Bob", false)

	r.AddScore("p1", 50)
	r.AddScore("p2", 50)

	// identical score and completions: earlier seat wins, deterministically
	for range 5 {
		rankings := r.Rankings()
		assert.Equal(t, "p1", rankings[0].ParticipantID)
		assert.Equal(t, "p2", rankings[1].ParticipantID)
	}
}

func TestRegistry_ConnectedHumans(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)
	r.Add("p2", "Bob", false)
	r.Add("b1", "智囊·阿尔法", true)

	assert.Equal(t, 2, r.ConnectedHumans())

	r.SetConnected("p1", false)
	assert.Equal(t, 1, r.ConnectedHumans())

	r.SetConnected("p2", false)
	// bots never count as connected humans
	assert.Equal(t, 0, r.ConnectedHumans())
}

func TestRegistry_ResetKeepsSeats(t *testing.T) {
	r := New()
	r.Add("p1", "Alice", false)
	r.AddScore("p1", 100)
	r.BumpStreak("p1", "pair-1")

	r.Reset()

	p, _ := r.Get("p1")
	assert.Equal(t, 0, p.Score)
	assert.Equal(t, 0, p.Streak)
	assert.Equal(t, 0, p.BestStreak)
	assert.Empty(t, p.Completed)
	assert.Equal(t, 1, r.Len())
}
