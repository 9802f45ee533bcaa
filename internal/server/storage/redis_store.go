package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间快照默认过期时间
	defaultRoomExpiration = 2 * time.Hour
)

// RoomData 房间快照（用于 Redis 序列化，只写不读回恢复）
type RoomData struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Duration   int          `json:"duration"`
	State      string       `json:"state"`
	TurnHolder string       `json:"turn_holder,omitempty"`
	TurnCount  uint         `json:"turn_count"`
	Position   string       `json:"position"`
	Deck       string       `json:"deck"`
	Pending    string       `json:"pending_clear,omitempty"`
	Players    []PlayerData `json:"players"`
	CreatedAt  int64        `json:"created_at"`
	UpdatedAt  int64        `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	Seat              int    `json:"seat"`
	ConnID            string `json:"conn_id"`
	Name              string `json:"name"`
	Avatar            string `json:"avatar"`
	AvatarOrientation string `json:"avatar_orientation"`
	AvatarColor       string `json:"avatar_color"`
	Role              string `json:"role,omitempty"`
	Connected         bool   `json:"connected"`
	RemainingMs       int64  `json:"remaining_ms"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client         *redis.Client
	roomExpiration time.Duration
}

// Option RedisStore 选项
type Option func(*RedisStore)

// WithRoomExpiration 设置房间快照过期时间
func WithRoomExpiration(d time.Duration) Option {
	return func(rs *RedisStore) {
		if d > 0 {
			rs.roomExpiration = d
		}
	}
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	rs := &RedisStore{client: client, roomExpiration: defaultRoomExpiration}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Ping 检查 Redis 连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// --- 房间存储 ---

// SaveRoom 保存房间快照到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + roomID
	return rs.client.Set(ctx, key, jsonData, rs.roomExpiration).Err()
}

// LoadRoom 读取房间快照（运维排查用，不用于恢复房间）
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomData, error) {
	key := roomKeyPrefix + roomID
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	key := roomKeyPrefix + roomID
	return rs.client.Del(ctx, key).Err()
}

// RoomIDs 列出 Redis 中仍有快照的房间号
func (rs *RedisStore) RoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
