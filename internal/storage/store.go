package storage

import (
	"context"

	"github.com/palemoky/judgment/internal/game"
)

// Store 房间状态存储
type Store interface {
	// Get 读取房间状态，房间不存在时返回 nil, nil
	Get(ctx context.Context, code string) (*game.State, error)
	Set(ctx context.Context, code string, state *game.State) error
	Delete(ctx context.Context, code string) error
	// Codes 列出所有已保存的房间号
	Codes(ctx context.Context) ([]string, error)
}

// ActionLog 按房间记录被接受的操作，用于回放
type ActionLog interface {
	Append(ctx context.Context, code string, action game.Action) error
	Actions(ctx context.Context, code string) ([]game.Action, error)
	Clear(ctx context.Context, code string) error
}

// Backend 同时提供状态存储和操作日志
type Backend interface {
	Store
	ActionLog
}
