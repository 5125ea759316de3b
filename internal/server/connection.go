package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
)

// Handler 返回服务器的 HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 来源验证
	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 封禁期内直接拒绝，不再计数
	if s.rateLimiter.IsBanned(clientIP) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制检查，连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	// 创建会话，发送连接成功消息（包含重连令牌）
	sess := s.sessionManager.Create(client.GetID())
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:       client.GetID(),
		ReconnectToken: sess.ReconnectToken,
	}))

	log.Printf("✅ 玩家 %s 已连接 (IP: %s)", client.GetID(), clientIP)

	go func() {
		defer func() { <-s.semaphore }()
		client.ReadPump()
	}()
	go client.WritePump()
}

// healthResponse 健康检查结果
type healthResponse struct {
	Status      string `json:"status"`
	Online      int    `json:"online"`
	Rooms       int    `json:"rooms"`
	ActiveGames int    `json:"active_games"`
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		Online:      s.GetOnlineCount(),
		Rooms:       s.roomManager.Count(),
		ActiveGames: s.roomManager.ActiveGames(),
	})
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.GetID()] = client
}

// unregisterClient 注销客户端，返回它是否仍是该玩家 ID 当前登记的连接
func (s *Server) unregisterClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	id := client.GetID()
	if s.clients[id] != client {
		return false
	}
	delete(s.clients, id)
	return true
}

// handleDisconnect 连接断开：会话转为离线，房间里的座位保留以便重连
func (s *Server) handleDisconnect(client *Client) {
	client.Close()
	if !s.unregisterClient(client) {
		// 已被重连的新连接取代
		return
	}
	s.messageLimiter.RemoveClient(client.GetID())
	s.handler.Disconnect(context.WithoutCancel(s.ctx), client)
	log.Printf("❌ 玩家 %s 已断开", client.GetID())
}
