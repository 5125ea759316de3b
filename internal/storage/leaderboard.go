package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/judgment/internal/game"
)

const (
	// Redis key
	playerStatsKey = "player:stats:"
	leaderboardKey = "leaderboard:score"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Games       int    `json:"games"`        // 完成的对局数
	Wins        int    `json:"wins"`         // 总分最高的对局数，并列都算
	BestScore   int    `json:"best_score"`   // 单局最高总分
	TotalPoints int    `json:"total_points"` // 累计得分，也是排行榜分数

	LastPlayedAt int64 `json:"last_played_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// Leaderboard 排行榜
type Leaderboard struct {
	redis *redis.Client
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client}
}

// Stats 获取玩家统计，没有记录时返回 nil, nil
func (lb *Leaderboard) Stats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lb.redis.Get(ctx, playerStatsKey+playerID).Bytes()
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

func (lb *Leaderboard) saveStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lb.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}

// RecordMatch 记录一局结束时的结果，观战者不计入
func (lb *Leaderboard) RecordMatch(ctx context.Context, players []*game.Player) error {
	best := 0
	seated := make([]*game.Player, 0, len(players))
	for _, p := range players {
		if p.Spectator {
			continue
		}
		if len(seated) == 0 || p.TotalPoints > best {
			best = p.TotalPoints
		}
		seated = append(seated, p)
	}

	now := time.Now().Unix()
	for _, p := range seated {
		stats, err := lb.Stats(ctx, p.ID)
		if err != nil {
			return err
		}
		if stats == nil {
			stats = &PlayerStats{PlayerID: p.ID, BestScore: p.TotalPoints}
		}

		stats.PlayerName = p.Name
		stats.Games++
		if p.TotalPoints == best {
			stats.Wins++
		}
		stats.BestScore = max(stats.BestScore, p.TotalPoints)
		stats.TotalPoints += p.TotalPoints
		stats.LastPlayedAt = now

		if err := lb.saveStats(ctx, stats); err != nil {
			return err
		}
		if err := lb.redis.ZIncrBy(ctx, leaderboardKey, float64(p.TotalPoints), p.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Top 获取排行榜前 limit 名（从高到低）
func (lb *Leaderboard) Top(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		return []*LeaderboardEntry{}, nil
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for _, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		stats, err := lb.Stats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.Games > 0 {
			winRate = float64(stats.Wins) / float64(stats.Games) * 100
		}

		entries = append(entries, &LeaderboardEntry{
			Rank:       len(entries) + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Games:      stats.Games,
			Wins:       stats.Wins,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// Rank 获取玩家排名，未上榜返回 -1
func (lb *Leaderboard) Rank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil // 未上榜
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
