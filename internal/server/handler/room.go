package handler

import (
	"context"
	"log"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/room"
	"github.com/palemoky/judgment/internal/types"
)

// handleCreateRoom 处理创建房间，创建者成为房主
func (h *Handler) handleCreateRoom(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		sendError(client, apperrors.ErrInvalidMsg)
		return
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.handleLeaveRoom(ctx, client)
	}

	r, err := h.roomManager.Create(ctx)
	if err != nil {
		log.Printf("创建房间失败: %v", err)
		sendError(client, err)
		return
	}
	h.enterRoom(ctx, client, r, payload.Name)
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		sendError(client, apperrors.ErrInvalidMsg)
		return
	}

	r, err := h.roomManager.Get(payload.RoomCode)
	if err != nil {
		sendError(client, err)
		return
	}

	// 如果已在其他房间中，先离开
	if current := client.GetRoom(); current != "" {
		if current == r.Code {
			sendError(client, apperrors.ErrAlreadyInRoom)
			return
		}
		h.handleLeaveRoom(ctx, client)
	}
	h.enterRoom(ctx, client, r, payload.Name)
}

func (h *Handler) enterRoom(ctx context.Context, client types.ClientInterface, r *room.Room, name string) {
	if err := r.Join(ctx, client, name); err != nil {
		sendError(client, err)
		return
	}
	h.sessionManager.SetRoom(client.GetID(), r.Code)

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: r.Code,
		PlayerID: client.GetID(),
	}))
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(ctx context.Context, client types.ClientInterface) {
	code := client.GetRoom()
	if code == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}

	if r, err := h.roomManager.Get(code); err == nil {
		r.Leave(ctx, client)
	}
	client.SetRoom("")
	h.sessionManager.SetRoom(client.GetID(), "")

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomLeft, nil))
}
