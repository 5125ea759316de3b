package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// 重连等待时间
	reconnectTimeout = 2 * time.Minute
	// 会话过期时间
	sessionExpireTime = 10 * time.Minute

	cleanupInterval = time.Minute
)

// Session 玩家会话（用于断线重连）
type Session struct {
	PlayerID       string
	ReconnectToken string

	mu             sync.RWMutex
	roomCode       string
	disconnectedAt time.Time // 断线时间
	online         bool      // 是否在线
}

// RoomCode 玩家所在房间，不在房间时为空
func (s *Session) RoomCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomCode
}

// Online 是否在线
func (s *Session) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Manager 会话管理器
type Manager struct {
	sessions map[string]*Session // playerID -> session
	tokens   map[string]string   // token -> playerID
	mu       sync.RWMutex
}

// NewManager 创建会话管理器
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		tokens:   make(map[string]string),
	}
}

// Create 创建新会话
func (sm *Manager) Create(playerID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, old.ReconnectToken)
	}

	session := &Session{
		PlayerID:       playerID,
		ReconnectToken: generateToken(),
		online:         true,
	}
	sm.sessions[playerID] = session
	sm.tokens[session.ReconnectToken] = playerID
	return session
}

// Get 获取会话
func (sm *Manager) Get(playerID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// SetOffline 设置玩家离线
func (sm *Manager) SetOffline(playerID string) {
	if session := sm.Get(playerID); session != nil {
		session.mu.Lock()
		session.online = false
		session.disconnectedAt = time.Now()
		session.mu.Unlock()
	}
}

// SetOnline 设置玩家上线
func (sm *Manager) SetOnline(playerID string) {
	if session := sm.Get(playerID); session != nil {
		session.mu.Lock()
		session.online = true
		session.disconnectedAt = time.Time{}
		session.mu.Unlock()
	}
}

// SetRoom 设置玩家所在房间
func (sm *Manager) SetRoom(playerID, roomCode string) {
	if session := sm.Get(playerID); session != nil {
		session.mu.Lock()
		session.roomCode = roomCode
		session.mu.Unlock()
	}
}

// Delete 删除会话
func (sm *Manager) Delete(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, session.ReconnectToken)
		delete(sm.sessions, playerID)
	}
}

// CanReconnect 检查令牌是否属于该玩家，并且仍在重连时限内
func (sm *Manager) CanReconnect(token, playerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	storedPlayerID, ok := sm.tokens[token]
	if !ok || storedPlayerID != playerID {
		return false
	}

	session, ok := sm.sessions[playerID]
	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()

	// 检查是否在重连时限内
	if !session.online && time.Since(session.disconnectedAt) > reconnectTimeout {
		return false
	}
	return true
}

// Count 会话数量
func (sm *Manager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Run 定期清理过期会话，直到 ctx 结束
func (sm *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sm.cleanup(now)
		}
	}
}

// cleanup 清理离线超过会话过期时间的会话
func (sm *Manager) cleanup(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for playerID, session := range sm.sessions {
		session.mu.RLock()
		expired := !session.online && now.Sub(session.disconnectedAt) > sessionExpireTime
		session.mu.RUnlock()

		if expired {
			delete(sm.tokens, session.ReconnectToken)
			delete(sm.sessions, playerID)
		}
	}
}

// generateToken 生成随机 token
func generateToken() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
