package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/judgment/internal/game"
)

const (
	// Redis key 前缀
	roomKeyPrefix    = "room:"
	actionsKeySuffix = ":actions"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func roomKey(code string) string    { return roomKeyPrefix + code }
func actionsKey(code string) string { return roomKeyPrefix + code + actionsKeySuffix }

// --- 房间状态 ---

// Set 保存房间状态，每次保存都会刷新过期时间
func (rs *RedisStore) Set(ctx context.Context, code string, state *game.State) error {
	if state == nil {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("序列化房间状态失败: %w", err)
	}
	return rs.client.Set(ctx, roomKey(code), data, roomExpiration).Err()
}

// Get 从 Redis 加载房间状态
func (rs *RedisStore) Get(ctx context.Context, code string) (*game.State, error) {
	data, err := rs.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("反序列化房间状态失败: %w", err)
	}
	return &state, nil
}

// Delete 删除房间状态和操作日志
func (rs *RedisStore) Delete(ctx context.Context, code string) error {
	return rs.client.Del(ctx, roomKey(code), actionsKey(code)).Err()
}

// Codes 获取所有房间号
func (rs *RedisStore) Codes(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, roomKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(keys))
	for _, key := range keys {
		code := key[len(roomKeyPrefix):]
		if strings.HasSuffix(code, actionsKeySuffix) {
			continue
		}
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}

// --- 操作日志 ---

// Append 追加一条操作，日志和房间状态使用相同的过期时间
func (rs *RedisStore) Append(ctx context.Context, code string, action game.Action) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("序列化操作失败: %w", err)
	}

	key := actionsKey(code)
	pipe := rs.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, roomExpiration)
	_, err = pipe.Exec(ctx)
	return err
}

// Actions 按顺序读取房间的全部操作
func (rs *RedisStore) Actions(ctx context.Context, code string) ([]game.Action, error) {
	items, err := rs.client.LRange(ctx, actionsKey(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	actions := make([]game.Action, 0, len(items))
	for i, item := range items {
		var a game.Action
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("反序列化第 %d 条操作失败: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Clear 清空房间的操作日志
func (rs *RedisStore) Clear(ctx context.Context, code string) error {
	return rs.client.Del(ctx, actionsKey(code)).Err()
}
