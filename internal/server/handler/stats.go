package handler

import (
	"context"
	"log"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// handleGetLeaderboard 处理获取排行榜
func (h *Handler) handleGetLeaderboard(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		sendError(client, apperrors.ErrInvalidMsg)
		return
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	result := protocol.LeaderboardResultPayload{Entries: []protocol.LeaderboardEntry{}, MyRank: -1}
	if h.leaderboard != nil {
		entries, err := h.leaderboard.Top(ctx, limit)
		if err != nil {
			log.Printf("获取排行榜失败: %v", err)
			sendError(client, err)
			return
		}
		for _, e := range entries {
			result.Entries = append(result.Entries, protocol.LeaderboardEntry{
				Rank:       e.Rank,
				PlayerID:   e.PlayerID,
				PlayerName: e.PlayerName,
				Score:      e.Score,
				Games:      e.Games,
				Wins:       e.Wins,
				WinRate:    e.WinRate,
			})
		}

		rank, err := h.leaderboard.Rank(ctx, client.GetID())
		if err != nil {
			log.Printf("获取玩家 %s 排名失败: %v", client.GetID(), err)
		} else {
			result.MyRank = rank
		}
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, result))
}
