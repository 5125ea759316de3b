package types

import (
	"context"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破 handler 和 server 之间的循环依赖）
type ServerInterface interface {
	GetOnlineCount() int
	// RebindClient 把连接改绑到重连玩家的 ID 上，旧连接会被关闭
	RebindClient(client ClientInterface, playerID string) error
}

// ClientInterface 定义客户端接口（用于打破 room 和 server 之间的循环依赖）
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(code string)
	SendMessage(msg *protocol.Message)
	Close()
}

// MatchRecorder 记录结束的对局，由排行榜实现
type MatchRecorder interface {
	RecordMatch(ctx context.Context, players []*game.Player) error
}
