package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	playerStatsKey = "arena:player:stats:"
	leaderboardKey = "arena:leaderboard:score"
)

// PlayerStats 玩家生涯统计
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"` // 总场次
	Wins       int `json:"wins"`        // 第一名次数

	TotalPoints int `json:"total_points"` // 生涯累计得分
	BestStreak  int `json:"best_streak"`  // 单局最高连胜

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// SessionResult 一个参与者的单局结果
type SessionResult struct {
	PlayerID   string
	PlayerName string
	Won        bool // 是否第一名
	Points     int
	BestStreak int
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	TotalPoints int    `json:"total_points"`
	Wins        int    `json:"wins"`
}

// LeaderboardManager 跨会话排行榜，积分放 ZSET，明细放 JSON
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

// RecordSessionResult 记录一个参与者的单局结果
func (lm *LeaderboardManager) RecordSessionResult(ctx context.Context, res SessionResult) error {
	stats, err := lm.getOrCreateStats(ctx, res.PlayerID, res.PlayerName)
	if err != nil {
		return err
	}

	stats.TotalGames++
	if res.Won {
		stats.Wins++
	}
	stats.TotalPoints += res.Points
	if res.BestStreak > stats.BestStreak {
		stats.BestStreak = res.BestStreak
	}
	stats.PlayerName = res.PlayerName
	stats.LastPlayedAt = time.Now().Unix()

	if err := lm.saveStats(ctx, stats); err != nil {
		return err
	}

	return lm.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.TotalPoints),
		Member: stats.PlayerID,
	}).Err()
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetLeaderboard 按生涯积分取前 limit 名
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	zs, err := lm.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		playerID, _ := z.Member.(string)
		entry := LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    playerID,
			TotalPoints: int(z.Score),
		}
		if stats, err := lm.GetPlayerStats(ctx, playerID); err == nil && stats != nil {
			entry.PlayerName = stats.PlayerName
			entry.Wins = stats.Wins
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPlayerRank 玩家名次（1 起），未上榜返回 0
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return rank + 1, nil
}

func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  time.Now().Unix(),
		}
	}
	return stats, nil
}

func (lm *LeaderboardManager) saveStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}
