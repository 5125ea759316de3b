package handler

import (
	"context"
	"log"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/room"
	"github.com/palemoky/judgment/internal/session"
	"github.com/palemoky/judgment/internal/storage"
	"github.com/palemoky/judgment/internal/types"
)

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	Top(ctx context.Context, limit int) ([]*storage.LeaderboardEntry, error)
	Rank(ctx context.Context, playerID string) (int64, error)
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server         types.ServerInterface
	RoomManager    *room.Manager
	SessionManager *session.Manager
	Leaderboard    LeaderboardReader // 内存存储模式下为 nil
}

// Handler 消息处理器
type Handler struct {
	server         types.ServerInterface
	roomManager    *room.Manager
	sessionManager *session.Manager
	leaderboard    LeaderboardReader
	handlers       map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(ctx context.Context, client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:         deps.Server,
		roomManager:    deps.RoomManager,
		sessionManager: deps.SessionManager,
		leaderboard:    deps.Leaderboard,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom: func(ctx context.Context, c types.ClientInterface, _ *protocol.Message) {
			h.handleLeaveRoom(ctx, c)
		},

		// 游戏操作
		protocol.MsgAction: h.handleAction,

		// 信息查询
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(ctx, client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, Payload长度=%d bytes)", msg.Type, client.GetID(), len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(apperrors.ErrCodeInvalidMsg))
}

// Disconnect 连接断开时调用：标记会话离线，并让玩家离开房间（座位保留，可以重连）
func (h *Handler) Disconnect(ctx context.Context, client types.ClientInterface) {
	h.sessionManager.SetOffline(client.GetID())

	code := client.GetRoom()
	if code == "" {
		return
	}
	r, err := h.roomManager.Get(code)
	if err != nil {
		return
	}
	r.Leave(ctx, client)
	log.Printf("📴 玩家 %s 在房间 %s 中掉线", client.GetID(), code)
}

// sendError 把错误转成错误消息发给客户端
func sendError(client types.ClientInterface, err error) {
	client.SendMessage(codec.ErrorMessageFrom(err))
}
