package handler

import (
	"context"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/types"
)

// handleAction 把游戏操作交给房间执行。玩家 ID 总是取自连接，忽略客户端填写的值；
// 成功时房间会广播新状态，失败时只回复操作者
func (h *Handler) handleAction(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ActionPayload](msg)
	if err != nil {
		sendError(client, apperrors.ErrInvalidMsg)
		return
	}

	code := client.GetRoom()
	if code == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}
	r, err := h.roomManager.Get(code)
	if err != nil {
		sendError(client, err)
		return
	}

	action := payload.Action
	action.PlayerID = client.GetID()
	// JOIN 和 DISCONNECT 由连接生命周期产生
	if action.Type == game.ActionJoin || action.Type == game.ActionDisconnect {
		sendError(client, apperrors.ErrUnknownAction.WithDetail("%s", action.Type))
		return
	}

	if _, err := r.Dispatch(ctx, action); err != nil {
		sendError(client, err)
	}
}
