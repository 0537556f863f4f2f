package session

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/engine/registry"
)

// A deck where every role fits every challenge by category, so pass/fail
// and point totals are fully deterministic regardless of shuffling.
const testDeck = `
challenges:
  - id: c1
    title: 开拓新市场
    category: strategy
    difficulty: 1
    base_points: 40
    time_budget: 60
    tags: [vision]
  - id: c2
    title: 年度战略复盘
    category: strategy
    difficulty: 1
    base_points: 40
    time_budget: 60
    tags: [vision]
  - id: c3
    title: 竞品突袭应对
    category: strategy
    difficulty: 1
    base_points: 40
    time_budget: 60
    tags: [vision]
  - id: c4
    title: 产品线取舍
    category: strategy
    difficulty: 1
    base_points: 40
    time_budget: 60
    tags: [vision]

roles:
  - id: r1
    name: 远见者
    category: strategy
    tags: [vision]
  - id: r2
    name: 战略家
    category: strategy
    tags: [vision]
  - id: r3
    name: 操盘手
    category: strategy
    tags: [vision]

synergies:
  - id: s1
    name: 洞察先机
    tags: [vision]

pair_contents:
  - { id: okr, name: OKR, pair: p1 }
  - { id: okr-def, name: 目标与关键结果, pair: p1 }
  - { id: roi, name: ROI, pair: p2 }
  - { id: roi-def, name: 投资回报率, pair: p2 }
  - { id: mvp, name: MVP, pair: p3 }
  - { id: mvp-def, name: 最小可行产品, pair: p3 }
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDeck), 0o644))
	cat, err := catalog.Load(path)
	require.NoError(t, err)
	return cat
}

func testConfig() Config {
	return Config{
		MinPlayers:        2,
		MaxPlayers:        8,
		HandSize:          3,
		CenterPoolSize:    2,
		TurnTimeout:       time.Hour, // timers must not fire unless a test wants them to
		StreakThreshold:   3,
		MatchPersistDelay: 10 * time.Millisecond,
		MismatchHideDelay: 10 * time.Millisecond,
	}
}

func newTestSession(t *testing.T, mode Mode, cfg Config, victory VictoryCondition) *Session {
	t.Helper()
	reg := registry.New()
	reg.Add("p1", "Alice", false)
	reg.Add("p2", "Bob", false)
	rng := rand.New(rand.NewPCG(42, 1))
	s := New("sess-1", "room-1", mode, cfg, victory, reg, testCatalog(t), rng)
	t.Cleanup(func() { s.ForceFinish("test cleanup") })
	return s
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func eventsOfType[T EventBody](s *Session) []T {
	var out []T
	for _, e := range s.Events() {
		if b, ok := e.Body.(T); ok {
			out = append(out, b)
		}
	}
	return out
}

func TestSessionStart_RequiresMinPlayers(t *testing.T) {
	reg := registry.New()
	reg.Add("p1", "Alice", false)
	s := New("sess-1", "room-1", ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000},
		reg, testCatalog(t), rand.New(rand.NewPCG(1, 1)))

	assert.ErrorIs(t, s.Start(), apperrors.ErrCapacityBelowMinimum)
	assert.Equal(t, PhaseWaiting, s.Phase())
}

func TestSessionStart_DealsAndOpensFirstTurn(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	assert.Equal(t, PhasePlaying, s.Phase())
	assert.Equal(t, 1, s.Turns())
	// first turn always goes to the first seat, never randomized
	assert.Equal(t, "p1", s.CurrentTurnOwner())

	snap := s.Snapshot("p1")
	assert.Equal(t, "playing", snap.Phase)
	assert.Equal(t, "selecting_challenge", snap.TurnPhase)
	assert.Len(t, snap.Center, 2)
	assert.Len(t, snap.Hand, 4) // 3 roles + 1 synergy
	assert.Len(t, snap.Participants, 2)

	// starting twice is rejected
	assert.ErrorIs(t, s.Start(), apperrors.ErrInvalidPhase)
}

func TestSelectChallenge_TurnExclusivity(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	center := s.Snapshot("").Center
	err := s.SelectChallenge("p2", center[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	assert.NoError(t, s.SelectChallenge("p1", center[0].ID))

	// selecting twice in the same turn is a phase violation
	err = s.SelectChallenge("p1", center[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhase)
}

func TestSubmitTeam_RequiresSelectedChallenge(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	err := s.SubmitTeam("p1", []string{snap.Hand[0].ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhase)
}

func TestSubmitTeam_ScoresAndAdvancesTurn(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))
	require.NoError(t, s.SubmitTeam("p1", []string{snap.Hand[0].ID}))

	submitted := eventsOfType[TeamSubmitted](s)
	require.Len(t, submitted, 1)
	assert.True(t, submitted[0].Passed)
	// base 40+5=45, category fit ×1.25 = 56, speed bonus 9 just under budget
	assert.Equal(t, 65, submitted[0].Points)
	assert.Equal(t, 65, submitted[0].NewScore)
	assert.Equal(t, 1, submitted[0].Streak)

	// turn passes to the next seat, back in challenge selection
	assert.Equal(t, 2, s.Turns())
	assert.Equal(t, "p2", s.CurrentTurnOwner())
	assert.Equal(t, "selecting_challenge", s.Snapshot("").TurnPhase)

	// the spent role card was replaced, hand is back to full size
	assert.Len(t, s.Snapshot("p1").Hand, 4)
}

func TestSubmitTeam_FirstCardMustBeRole(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))

	var synergyID string
	for _, c := range snap.Hand {
		if c.Kind == "synergy" {
			synergyID = c.ID
		}
	}
	require.NotEmpty(t, synergyID)

	err := s.SubmitTeam("p1", []string{synergyID, snap.Hand[0].ID})
	assert.Error(t, err)

	// unknown card ids are rejected outright
	err = s.SubmitTeam("p1", []string{"no-such-card"})
	assert.Error(t, err)
}

func TestSkipTurn_ResetsStreakAndAdvances(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	// p1 builds a streak first
	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))
	require.NoError(t, s.SubmitTeam("p1", []string{snap.Hand[0].ID}))

	// p2 skips
	require.NoError(t, s.SkipTurn("p2", "pass"))

	skipped := eventsOfType[TurnSkipped](s)
	require.Len(t, skipped, 1)
	assert.Equal(t, "p2", skipped[0].OwnerID)
	assert.Equal(t, "pass", skipped[0].Reason)

	// back to p1; p1's streak survives a skip that wasn't theirs
	assert.Equal(t, "p1", s.CurrentTurnOwner())
	p1, err := s.Registry().Get("p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Streak)

	assert.ErrorIs(t, s.SkipTurn("p2", "pass"), apperrors.ErrNotYourTurn)
}

func TestVictoryByScore_EndsSession(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 60})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))
	require.NoError(t, s.SubmitTeam("p1", []string{snap.Hand[0].ID}))

	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, "victory", s.EndReason())

	ended := eventsOfType[GameEnded](s)
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Rankings, 2)
	assert.Equal(t, "p1", ended[0].Rankings[0].ParticipantID)
	assert.Equal(t, 1, ended[0].Rankings[0].Rank)
	assert.Len(t, ended[0].Profiles, 2)

	// finished sessions reject further play
	assert.ErrorIs(t, s.SkipTurn("p2", "pass"), apperrors.ErrInvalidPhase)
}

func TestForceFinish_Idempotent(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	done := make(chan struct{}, 2)
	s.OnFinished(func(*Session) { done <- struct{}{} })

	s.ForceFinish("time_limit")
	s.ForceFinish("time_limit")

	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, "time_limit", s.EndReason())
	assert.Len(t, eventsOfType[GameEnded](s), 1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("finish callback never fired")
	}
	select {
	case <-done:
		t.Fatal("finish callback fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTurnTimeout_SkipsAndNeverFiresAfterFinish(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 50 * time.Millisecond
	s := newTestSession(t, ModeBusiness, cfg, VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	ok := waitFor(t, time.Second, func() bool {
		return len(eventsOfType[TurnSkipped](s)) >= 1
	})
	require.True(t, ok, "turn never timed out")

	skipped := eventsOfType[TurnSkipped](s)
	assert.Equal(t, 1, skipped[0].Turn)
	assert.Equal(t, "p1", skipped[0].OwnerID)
	assert.Equal(t, "timeout", skipped[0].Reason)

	// after finish, pending timers are stale and must not emit anything
	s.ForceFinish("test")
	seq := len(s.Events())
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, seq, len(s.Events()))
}

func TestTurnTimer_CancelledByAction(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 80 * time.Millisecond
	s := newTestSession(t, ModeBusiness, cfg, VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))
	require.NoError(t, s.SubmitTeam("p1", []string{snap.Hand[0].ID}))

	time.Sleep(150 * time.Millisecond)

	// turn 1 completed normally, so no skip may be recorded against it
	for _, sk := range eventsOfType[TurnSkipped](s) {
		assert.NotEqual(t, 1, sk.Turn, "completed turn was skipped by a stale timer")
	}
}

func TestTurnWarning_Emitted(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 200 * time.Millisecond
	cfg.TurnWarning = 150 * time.Millisecond
	s := newTestSession(t, ModeBusiness, cfg, VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	ok := waitFor(t, time.Second, func() bool {
		return len(eventsOfType[TurnWarning](s)) >= 1
	})
	require.True(t, ok, "warning never emitted")

	warn := eventsOfType[TurnWarning](s)[0]
	assert.Equal(t, "p1", warn.OwnerID)
	assert.Equal(t, cfg.TurnWarning, warn.Remaining)
}

func TestEvents_SequenceStrictlyIncreasing(t *testing.T) {
	s := newTestSession(t, ModeBusiness, testConfig(), VictoryCondition{Kind: VictoryScore, Target: 1000})
	require.NoError(t, s.Start())

	snap := s.Snapshot("p1")
	require.NoError(t, s.SelectChallenge("p1", snap.Center[0].ID))
	require.NoError(t, s.SubmitTeam("p1", []string{snap.Hand[0].ID}))
	s.ForceFinish("test")

	events := s.Events()
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.Equal(t, "sess-1", e.SessionID)
	}
}
