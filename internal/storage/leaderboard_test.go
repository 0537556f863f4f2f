package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboard_RecordAccumulatesStats(t *testing.T) {
	lm := NewLeaderboardManager(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p1", PlayerName: "Alice", Won: true, Points: 120, BestStreak: 3,
	}))
	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p1", PlayerName: "Alice", Won: false, Points: 80, BestStreak: 2,
	}))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 200, stats.TotalPoints)
	assert.Equal(t, 3, stats.BestStreak) // best streak never regresses
	assert.NotZero(t, stats.CreatedAt)
	assert.NotZero(t, stats.LastPlayedAt)
}

func TestLeaderboard_GetPlayerStatsMissingReturnsNil(t *testing.T) {
	lm := NewLeaderboardManager(newTestClient(t))

	stats, err := lm.GetPlayerStats(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestLeaderboard_OrderedByCareerPoints(t *testing.T) {
	lm := NewLeaderboardManager(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p1", PlayerName: "Alice", Points: 50,
	}))
	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p2", PlayerName: "Bob", Won: true, Points: 150,
	}))
	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p3", PlayerName: "Carol", Points: 90,
	}))

	entries, err := lm.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "p2", entries[0].PlayerID)
	assert.Equal(t, "Bob", entries[0].PlayerName)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 150, entries[0].TotalPoints)
	assert.Equal(t, 1, entries[0].Wins)

	assert.Equal(t, "p3", entries[1].PlayerID)
	assert.Equal(t, "p1", entries[2].PlayerID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestLeaderboard_LimitCapsEntries(t *testing.T) {
	lm := NewLeaderboardManager(newTestClient(t))
	ctx := context.Background()

	for _, r := range []SessionResult{
		{PlayerID: "p1", PlayerName: "Alice", Points: 10},
		{PlayerID: "p2", PlayerName: "Bob", Points: 20},
		{PlayerID: "p3", PlayerName: "Carol", Points: 30},
	} {
		require.NoError(t, lm.RecordSessionResult(ctx, r))
	}

	entries, err := lm.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p3", entries[0].PlayerID)
}

func TestLeaderboard_GetPlayerRank(t *testing.T) {
	lm := NewLeaderboardManager(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p1", PlayerName: "Alice", Points: 50,
	}))
	require.NoError(t, lm.RecordSessionResult(ctx, SessionResult{
		PlayerID: "p2", PlayerName: "Bob", Points: 150,
	}))

	rank, err := lm.GetPlayerRank(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lm.GetPlayerRank(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	// unranked players come back as 0, not an error
	rank, err = lm.GetPlayerRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rank)
}
