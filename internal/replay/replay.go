// Package replay 通过操作日志重建房间状态，用于核对持久化的状态。
package replay

import (
	"context"
	"fmt"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/storage"
)

// Result 一次回放的结果
type Result struct {
	Code     string
	Actions  int
	Replayed *game.State
	Stored   *game.State // 状态已过期时为 nil
	Diffs    []string
}

// Replay 从空大厅开始依次执行 actions
func Replay(actions []game.Action) (*game.State, error) {
	state := game.NewState()
	for i, action := range actions {
		next, err := game.Apply(state, action)
		if err != nil {
			return nil, fmt.Errorf("操作 #%d (%s by %s): %w", i, action.Type, action.PlayerID, err)
		}
		state = next
	}
	return state, nil
}

// Room 读取房间的操作日志并回放，再和保存的状态比较
func Room(ctx context.Context, backend storage.Backend, code string) (*Result, error) {
	actions, err := backend.Actions(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("读取操作日志失败: %w", err)
	}
	if len(actions) == 0 {
		return nil, apperrors.ErrRoomNotFound.WithDetail("房间 %s 没有操作日志", code)
	}

	replayed, err := Replay(actions)
	if err != nil {
		return nil, err
	}

	stored, err := backend.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("读取房间状态失败: %w", err)
	}

	res := &Result{Code: code, Actions: len(actions), Replayed: replayed, Stored: stored}
	if stored != nil {
		res.Diffs = Diff(replayed, stored)
	}
	return res, nil
}

// Diff 列出两个状态在阶段、轮次和比分上的差异
func Diff(replayed, stored *game.State) []string {
	var diffs []string
	if replayed.Phase != stored.Phase {
		diffs = append(diffs, fmt.Sprintf("phase: 回放 %s, 保存 %s", replayed.Phase, stored.Phase))
	}
	if replayed.RoundIndex != stored.RoundIndex {
		diffs = append(diffs, fmt.Sprintf("roundIndex: 回放 %d, 保存 %d", replayed.RoundIndex, stored.RoundIndex))
	}
	if replayed.CardsPerPlayer != stored.CardsPerPlayer {
		diffs = append(diffs, fmt.Sprintf("cardsPerPlayer: 回放 %d, 保存 %d", replayed.CardsPerPlayer, stored.CardsPerPlayer))
	}
	if len(replayed.ScoresHistory) != len(stored.ScoresHistory) {
		diffs = append(diffs, fmt.Sprintf("scoresHistory: 回放 %d 轮, 保存 %d 轮", len(replayed.ScoresHistory), len(stored.ScoresHistory)))
	}
	if len(replayed.Players) != len(stored.Players) {
		diffs = append(diffs, fmt.Sprintf("players: 回放 %d 人, 保存 %d 人", len(replayed.Players), len(stored.Players)))
		return diffs
	}
	for _, p := range replayed.Players {
		sp := stored.Player(p.ID)
		if sp == nil {
			diffs = append(diffs, fmt.Sprintf("玩家 %s 不在保存的状态中", p.ID))
			continue
		}
		if p.TotalPoints != sp.TotalPoints {
			diffs = append(diffs, fmt.Sprintf("%s totalPoints: 回放 %d, 保存 %d", p.Name, p.TotalPoints, sp.TotalPoints))
		}
		if len(p.Hand) != len(sp.Hand) {
			diffs = append(diffs, fmt.Sprintf("%s 手牌: 回放 %d 张, 保存 %d 张", p.Name, len(p.Hand), len(sp.Hand)))
		}
	}
	return diffs
}
