package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKey = "player:stats:"
	leaderboardKey = "leaderboard:score"
)

// 积分规则
const (
	ScoreWin  = 20
	ScoreLoss = -10
	ScoreDraw = 5
)

// Outcome 单个玩家的对局结果
type Outcome int

const (
	OutcomeLoss Outcome = iota
	OutcomeWin
	OutcomeDraw
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerName   string `json:"player_name"`
	TotalGames   int    `json:"total_games"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Draws        int    `json:"draws"`
	Score        int    `json:"score"`
	LastPlayedAt int64  `json:"last_played_at"`
}

// WinRate 胜率（百分比）
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames) * 100
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int
	Stats PlayerStats
}

// RecordGameResult 记录一名玩家的对局结果并更新排行榜
func (rs *RedisStore) RecordGameResult(ctx context.Context, playerName string, outcome Outcome) error {
	if playerName == "" {
		return nil
	}

	field, delta := "losses", ScoreLoss
	switch outcome {
	case OutcomeWin:
		field, delta = "wins", ScoreWin
	case OutcomeDraw:
		field, delta = "draws", ScoreDraw
	}

	key := playerStatsKey + playerName
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "player_name", playerName, "last_played_at", time.Now().Unix())
		pipe.HIncrBy(ctx, key, "total_games", 1)
		pipe.HIncrBy(ctx, key, field, 1)
		pipe.HIncrBy(ctx, key, "score", int64(delta))
		pipe.ZIncrBy(ctx, leaderboardKey, float64(delta), playerName)
		return nil
	})
	return err
}

// GetPlayerStats 获取玩家统计，未上榜返回 nil
func (rs *RedisStore) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := rs.client.HGetAll(ctx, playerStatsKey+playerName).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	atoi := func(k string) int {
		n, _ := strconv.Atoi(data[k])
		return n
	}
	return &PlayerStats{
		PlayerName:   data["player_name"],
		TotalGames:   atoi("total_games"),
		Wins:         atoi("wins"),
		Losses:       atoi("losses"),
		Draws:        atoi("draws"),
		Score:        atoi("score"),
		LastPlayedAt: int64(atoi("last_played_at")),
	}, nil
}

// GetLeaderboard 获取积分排行榜（从高到低）
func (rs *RedisStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := rs.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := rs.GetPlayerStats(ctx, name)
		if err != nil || stats == nil {
			continue
		}
		stats.Score = int(result.Score)
		entries = append(entries, LeaderboardEntry{Rank: i + 1, Stats: *stats})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (rs *RedisStore) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := rs.client.ZRevRank(ctx, leaderboardKey, playerName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
