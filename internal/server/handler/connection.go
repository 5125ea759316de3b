package handler

import (
	"context"
	"log"
	"time"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(_ context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 处理断线重连：新连接改用旧的玩家 ID，并回到原来的房间
func (h *Handler) handleReconnect(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		sendError(client, apperrors.ErrInvalidMsg)
		return
	}

	// 验证重连令牌
	if !h.sessionManager.CanReconnect(payload.Token, payload.PlayerID) {
		sendError(client, apperrors.ErrReconnectFailed.WithDetail("重连令牌无效或已过期"))
		return
	}
	session := h.sessionManager.Get(payload.PlayerID)
	if session == nil {
		sendError(client, apperrors.ErrReconnectFailed.WithDetail("会话不存在"))
		return
	}

	// 连接建立时创建的临时会话不再需要
	tempID := client.GetID()
	if tempID != payload.PlayerID {
		if code := client.GetRoom(); code != "" {
			h.handleLeaveRoom(ctx, client)
		}
		h.sessionManager.Delete(tempID)
	}

	if err := h.server.RebindClient(client, payload.PlayerID); err != nil {
		sendError(client, err)
		return
	}
	h.sessionManager.SetOnline(payload.PlayerID)

	reconnected := protocol.ReconnectedPayload{PlayerID: payload.PlayerID}

	// 如果在房间中，重新加入；JOIN 对已有座位的玩家就是重连
	if code := session.RoomCode(); code != "" {
		if r, err := h.roomManager.Get(code); err == nil {
			if err := r.Join(ctx, client, ""); err != nil {
				log.Printf("重连到房间 %s 失败: %v", code, err)
			} else {
				reconnected.RoomCode = code
			}
		}
		if reconnected.RoomCode == "" {
			h.sessionManager.SetRoom(payload.PlayerID, "")
		}
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgReconnected, reconnected))
	log.Printf("🔄 玩家 %s 重连成功", payload.PlayerID)
}
