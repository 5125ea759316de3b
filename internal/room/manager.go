package room

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/storage"
	"github.com/palemoky/judgment/internal/types"
)

const (
	roomCodeLength = 6            // 房间号长度
	roomCodeChars  = "0123456789" // 房间号字符集

	cleanupInterval = time.Minute
)

// Options 房间管理器配置
type Options struct {
	AutoPlayDelay time.Duration       // 托管默认延迟，房间设置优先
	RoomTimeout   time.Duration       // 空闲房间的保留时间
	Recorder      types.MatchRecorder // 对局结束时记录成绩，可以为 nil
	Settings      *game.Settings      // 新房间的默认设置，由第一位加入的房主应用
}

// Manager 房间管理器
type Manager struct {
	store       storage.Store
	actionLog   storage.ActionLog
	recorder    types.MatchRecorder
	settings    *game.Settings
	autoDelay   time.Duration
	roomTimeout time.Duration

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewManager 创建房间管理器
func NewManager(backend storage.Backend, opts Options) *Manager {
	return &Manager{
		store:       backend,
		actionLog:   backend,
		recorder:    opts.Recorder,
		settings:    opts.Settings,
		autoDelay:   opts.AutoPlayDelay,
		roomTimeout: opts.RoomTimeout,
		rooms:       make(map[string]*Room),
	}
}

// Create 创建一个空房间
func (m *Manager) Create(ctx context.Context) (*Room, error) {
	m.mu.Lock()
	code := m.generateRoomCode()
	room := newRoom(code, game.NewState(), 0, m)
	m.rooms[code] = room
	m.mu.Unlock()

	if err := m.store.Set(ctx, code, room.state); err != nil {
		m.mu.Lock()
		delete(m.rooms, code)
		m.mu.Unlock()
		return nil, fmt.Errorf("保存房间 %s 失败: %w", code, err)
	}

	log.Printf("🏠 房间 %s 已创建", code)
	return room, nil
}

// Get 获取房间
func (m *Manager) Get(code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[code]
	if !ok {
		return nil, apperrors.ErrRoomNotFound.WithDetail("%s", code)
	}
	return room, nil
}

// Remove 关闭房间并删除它的状态和操作日志
func (m *Manager) Remove(ctx context.Context, code string) error {
	m.mu.Lock()
	room, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if ok {
		room.close()
	}
	if err := m.store.Delete(ctx, code); err != nil {
		return err
	}
	if err := m.actionLog.Clear(ctx, code); err != nil {
		return err
	}
	log.Printf("🏠 房间 %s 已解散", code)
	return nil
}

// Restore 从存储中恢复房间，用于服务重启后继续之前的对局。
// 恢复出来的房间没有在线连接，所以先把所有玩家标记为离线。
func (m *Manager) Restore(ctx context.Context) (int, error) {
	codes, err := m.store.Codes(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, code := range codes {
		m.mu.RLock()
		_, exists := m.rooms[code]
		m.mu.RUnlock()
		if exists {
			continue
		}

		state, err := m.store.Get(ctx, code)
		if err != nil {
			log.Printf("⚠️ 恢复房间 %s 失败: %v", code, err)
			continue
		}
		if state == nil {
			continue
		}
		actions, err := m.actionLog.Actions(ctx, code)
		if err != nil {
			log.Printf("⚠️ 读取房间 %s 操作日志失败: %v", code, err)
			continue
		}

		room := newRoom(code, state, uint64(len(actions)), m)
		for _, p := range state.Players {
			if p.Connected {
				if _, err := room.Dispatch(ctx, game.Disconnect(p.ID)); err != nil {
					log.Printf("⚠️ 房间 %s 标记玩家 %s 离线失败: %v", code, p.ID, err)
				}
			}
		}

		m.mu.Lock()
		m.rooms[code] = room
		m.mu.Unlock()
		restored++
	}

	if restored > 0 {
		log.Printf("♻️ 已从存储恢复 %d 个房间", restored)
	}
	return restored, nil
}

// Count 房间总数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ActiveGames 正在进行对局的房间数
func (m *Manager) ActiveGames() int {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	active := 0
	for _, room := range rooms {
		state, _ := room.Snapshot()
		if state.Phase == game.PhaseBetting || state.Phase == game.PhasePlaying {
			active++
		}
	}
	return active
}

// Run 定期清理空闲房间，直到 ctx 结束
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.cleanup(ctx, now)
		}
	}
}

// cleanup 清理空闲超时的房间
func (m *Manager) cleanup(ctx context.Context, now time.Time) {
	if m.roomTimeout <= 0 {
		return
	}

	m.mu.RLock()
	var expired []string
	for code, room := range m.rooms {
		if idle, ok := room.idleFor(now); ok && idle > m.roomTimeout {
			expired = append(expired, code)
		}
	}
	m.mu.RUnlock()

	for _, code := range expired {
		if err := m.Remove(ctx, code); err != nil {
			log.Printf("⚠️ 清理房间 %s 失败: %v", code, err)
			continue
		}
		log.Printf("🧹 房间 %s 超时已清理", code)
	}
}

// generateRoomCode 生成房间号，调用方持有写锁
func (m *Manager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := m.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}
