package client

import (
	"context"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
)

// AutoPlay 按托管策略替自己下注出牌，直到对局结束，返回最后看到的状态。
// 每个状态版本最多操作一次
func (c *Client) AutoPlay(ctx context.Context) (*protocol.StatePayload, error) {
	var acted uint64
	for {
		msg, err := c.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Type != protocol.MsgState {
			continue
		}

		view, err := codec.ParsePayload[protocol.StatePayload](msg)
		if err != nil {
			return nil, err
		}
		if view.State == nil {
			continue
		}
		if view.State.Phase == game.PhaseFinished {
			return view, nil
		}

		actor := view.State.CurrentActor()
		if actor == nil || actor.ID != c.PlayerID() || view.Version <= acted {
			continue
		}
		action, ok := game.AutoAction(view.State)
		if !ok {
			continue
		}
		acted = view.Version
		if err := c.Act(action); err != nil {
			return nil, err
		}
	}
}
