package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/judgment/internal/config"
	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/room"
	"github.com/palemoky/judgment/internal/server/handler"
	"github.com/palemoky/judgment/internal/session"
	"github.com/palemoky/judgment/internal/storage"
	"github.com/palemoky/judgment/internal/types"
)

// Server WebSocket 服务器
type Server struct {
	config         *config.Config
	redis          *redis.Client        // memory 后端时为 nil
	leaderboard    *storage.Leaderboard // memory 后端时为 nil
	roomManager    *room.Manager
	sessionManager *session.Manager
	handler        *handler.Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	upgrader       websocket.Upgrader
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	httpMu     sync.Mutex
	httpServer *http.Server
}

// NewServer 创建服务器实例，恢复持久化的房间并启动后台任务
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:         cfg,
		clients:        make(map[string]*Client),
		sessionManager: session.NewManager(),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	backend, err := s.openBackend()
	if err != nil {
		return nil, err
	}

	opts := room.Options{
		AutoPlayDelay: cfg.Game.AutoPlayDelayDuration(),
		RoomTimeout:   cfg.Game.RoomTimeoutDuration(),
	}
	if cfg.Game.DefaultAutoPlay {
		opts.Settings = &game.Settings{AutoPlayEnabled: true, AutoPlayDelayMs: cfg.Game.AutoPlayDelay}
	}
	var lb handler.LeaderboardReader
	if s.leaderboard != nil {
		opts.Recorder = s.leaderboard
		lb = s.leaderboard
	}
	s.roomManager = room.NewManager(backend, opts)

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:         s,
		RoomManager:    s.roomManager,
		SessionManager: s.sessionManager,
		Leaderboard:    lb,
	})

	s.ctx, s.cancel = context.WithCancel(context.Background())

	restored, err := s.roomManager.Restore(s.ctx)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("恢复房间失败: %w", err)
	}
	if restored > 0 {
		log.Printf("♻️ 已恢复 %d 个房间", restored)
	}

	s.startBackground()

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)
	return s, nil
}

// openBackend 按配置创建房间存储
func (s *Server) openBackend() (storage.Backend, error) {
	switch s.config.Storage.Backend {
	case config.BackendMemory:
		log.Println("💾 使用内存存储，重启后房间不会保留")
		return storage.NewMemoryStore(), nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.config.Redis.Addr,
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		s.redis = rdb
		s.leaderboard = storage.NewLeaderboard(rdb)
		return storage.NewRedisStore(rdb), nil

	default:
		return nil, fmt.Errorf("未知的存储后端: %q", s.config.Storage.Backend)
	}
}

// startBackground 启动房间清理、会话清理、限流清理和监控
func (s *Server) startBackground() {
	for _, run := range []func(context.Context){
		s.roomManager.Run,
		s.sessionManager.Run,
		s.rateLimiter.Run,
		s.monitorStats,
	} {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(s.ctx)
		}()
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Interface implementations for types.ServerInterface

// RebindClient 重连时把新连接登记到原来的玩家 ID 下，关闭该玩家仍然存在的旧连接
func (s *Server) RebindClient(client types.ClientInterface, playerID string) error {
	c, ok := client.(*Client)
	if !ok {
		return fmt.Errorf("不支持的客户端类型 %T", client)
	}

	s.clientsMu.Lock()
	if s.clients[c.GetID()] == c {
		delete(s.clients, c.GetID())
	}
	old := s.clients[playerID]
	c.setID(playerID)
	s.clients[playerID] = c
	s.clientsMu.Unlock()

	if old != nil && old != c {
		log.Printf("🔁 玩家 %s 的旧连接被新连接取代", playerID)
		old.Close()
	}
	return nil
}
