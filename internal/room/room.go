package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/logger"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
	"github.com/palemoky/judgment/internal/storage"
	"github.com/palemoky/judgment/internal/types"
)

// Room 一个房间的唯一写入者：所有操作串行经过 Dispatch，
// 成功后依次记录日志、保存状态、广播各玩家视角，并重新安排托管。
type Room struct {
	Code      string    // 房间号
	CreatedAt time.Time // 创建时间

	store     storage.Store
	actionLog storage.ActionLog
	recorder  types.MatchRecorder // 可以为 nil
	settings  *game.Settings      // 默认设置，可以为 nil
	autoDelay time.Duration

	mu         sync.Mutex
	state      *game.State
	version    uint64
	members    map[string]types.ClientInterface // playerID -> 连接
	lastActive time.Time
	timer      *time.Timer
	closed     bool
}

func newRoom(code string, state *game.State, version uint64, m *Manager) *Room {
	now := time.Now()
	return &Room{
		Code:       code,
		CreatedAt:  now,
		store:      m.store,
		actionLog:  m.actionLog,
		recorder:   m.recorder,
		settings:   m.settings,
		autoDelay:  m.autoDelay,
		state:      state,
		version:    version,
		members:    make(map[string]types.ClientInterface),
		lastActive: now,
	}
}

// Snapshot 返回当前状态和版本号。状态只读，不要修改
func (r *Room) Snapshot() (*game.State, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.version
}

// Dispatch 执行一个操作。被拒绝时房间状态不变，错误原样返回
func (r *Room) Dispatch(ctx context.Context, action game.Action) (*game.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatchLocked(ctx, action)
}

func (r *Room) dispatchLocked(ctx context.Context, action game.Action) (*game.State, error) {
	// 种子在这里确定并写入日志，回放时才能得到同样的发牌
	if action.Type == game.ActionStartGame && action.Seed == "" {
		action.Seed = uuid.NewString()
	}

	prev := r.state
	next, err := game.Apply(prev, action)
	if err != nil {
		return nil, err
	}

	r.state = next
	r.version++
	r.lastActive = time.Now()

	if err := r.actionLog.Append(ctx, r.Code, action); err != nil {
		logger.LogError("房间 %s 记录操作失败: %v", r.Code, err)
	}
	if err := r.store.Set(ctx, r.Code, next); err != nil {
		logger.LogError("房间 %s 保存状态失败: %v", r.Code, err)
	}

	if matchCompleted(prev, next, action) {
		r.recordMatchLocked(ctx)
	}
	r.broadcastLocked()
	r.scheduleAutoPlayLocked()
	return next, nil
}

// Join 把连接加入房间并以该玩家身份执行 JOIN；已经在座的玩家视为重连
func (r *Room) Join(ctx context.Context, client types.ClientInterface, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := client.GetID()
	empty := len(r.state.Players) == 0
	old, hadMember := r.members[id]
	r.members[id] = client

	if _, err := r.dispatchLocked(ctx, game.Join(id, name)); err != nil {
		if hadMember {
			r.members[id] = old
		} else {
			delete(r.members, id)
		}
		return err
	}

	client.SetRoom(r.Code)
	if hadMember && old != client {
		old.SetRoom("")
	}
	log.Printf("👤 玩家 %s 加入房间 %s", id, r.Code)

	// 第一位玩家成为房主，以房主身份应用默认设置，这样操作日志可以完整回放
	if empty && r.settings != nil {
		if _, err := r.dispatchLocked(ctx, game.UpdateSettings(id, *r.settings)); err != nil {
			log.Printf("⚠️ 房间 %s 应用默认设置失败: %v", r.Code, err)
		}
	}
	return nil
}

// Leave 断开玩家的连接；座位保留，之后可以重连。
// 只有 client 仍是该玩家当前的连接时才生效，已被重连取代的旧连接不会影响新连接。
func (r *Room) Leave(ctx context.Context, client types.ClientInterface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	playerID := client.GetID()
	if current, ok := r.members[playerID]; !ok || current != client {
		return
	}
	delete(r.members, playerID)
	client.SetRoom("")

	if _, err := r.dispatchLocked(ctx, game.Disconnect(playerID)); err != nil {
		log.Printf("⚠️ 房间 %s 标记玩家 %s 离线失败: %v", r.Code, playerID, err)
	}
	log.Printf("👋 玩家 %s 离开房间 %s", playerID, r.Code)
}

// MemberCount 当前在线连接数
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// broadcastLocked 给每个连接发送其玩家视角的状态
func (r *Room) broadcastLocked() {
	for id, client := range r.members {
		client.SendMessage(r.stateMessageLocked(id))
	}
}

func (r *Room) stateMessageLocked(playerID string) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgState, protocol.StatePayload{
		RoomCode: r.Code,
		Version:  r.version,
		State:    r.state.ViewFor(playerID),
	})
}

// matchCompleted 最后一轮出完最后一张牌才算打完一局；房主 END_GAME 属于中止，不计入排行榜
func matchCompleted(prev, next *game.State, action game.Action) bool {
	return action.Type == game.ActionPlayCard &&
		prev.Phase == game.PhasePlaying &&
		next.Phase == game.PhaseFinished
}

func (r *Room) recordMatchLocked(ctx context.Context) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordMatch(ctx, r.state.Players); err != nil {
		logger.LogError("房间 %s 记录排行榜失败: %v", r.Code, err)
		return
	}
	log.Printf("🏆 房间 %s 对局结束，已记录排行榜", r.Code)
}

// idleFor 房间没有在线连接、或者停留在大厅/结束阶段的时长
func (r *Room) idleFor(now time.Time) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inProgress := r.state.Phase == game.PhaseBetting || r.state.Phase == game.PhasePlaying
	if inProgress && len(r.members) > 0 {
		return 0, false
	}
	return now.Sub(r.lastActive), true
}

// close 停止计时器并断开所有连接的房间关联
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.stopTimerLocked()
	for _, client := range r.members {
		client.SetRoom("")
	}
	r.members = make(map[string]types.ClientInterface)
}
