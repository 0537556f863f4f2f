package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playleap/challenge-arena/internal/protocol"
)

const (
	// Redis key 前缀
	roomKeyPrefix    = "arena:room:"
	sessionKeyPrefix = "arena:session:"

	// 快照过期时间。快照只用于状态重建，不是长期账本。
	roomExpiration    = 24 * time.Hour
	sessionExpiration = 2 * time.Hour
)

// RoomSnapshot 房间快照（Redis 序列化用）
type RoomSnapshot struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	CurrentSessionID  string   `json:"current_session_id,omitempty"`
	Seated            []string `json:"seated"`
	Queued            []string `json:"queued,omitempty"`
	TotalGamesPlayed  int      `json:"total_games_played"`
	TotalRoundsPlayed int      `json:"total_rounds_played"`
	LastGameStartedAt int64    `json:"last_game_started_at,omitempty"`
	SavedAt           int64    `json:"saved_at"`
}

// RedisStore 快照存储。
// 引擎在每次阶段切换后 fire-and-forget 写入，写失败只记日志不重试。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveRoom 保存房间快照
func (rs *RedisStore) SaveRoom(ctx context.Context, snap *RoomSnapshot) error {
	snap.SavedAt = time.Now().Unix()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化房间快照失败: %w", err)
	}
	return rs.client.Set(ctx, roomKeyPrefix+snap.ID, data, roomExpiration).Err()
}

// LoadRoom 加载房间快照，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomSnapshot, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化房间快照失败: %w", err)
	}
	return &snap, nil
}

// DeleteRoom 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}

// SaveSession 保存会话状态快照
func (rs *RedisStore) SaveSession(ctx context.Context, snap *protocol.SessionStatePayload) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化会话快照失败: %w", err)
	}
	return rs.client.Set(ctx, sessionKeyPrefix+snap.SessionID, data, sessionExpiration).Err()
}

// LoadSession 加载会话快照，不存在时返回 nil
func (rs *RedisStore) LoadSession(ctx context.Context, sessionID string) (*protocol.SessionStatePayload, error) {
	data, err := rs.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap protocol.SessionStatePayload
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化会话快照失败: %w", err)
	}
	return &snap, nil
}
