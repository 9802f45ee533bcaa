package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
)

const (
	monitorInterval = 30 * time.Second
	httpStopTimeout = 5 * time.Second
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			s.log.Info("📊 [监控]",
				zap.Int("online", s.GetOnlineCount()),
				zap.Int("rooms", s.registry.Count()),
				zap.Int("active_games", s.registry.ActiveGames()),
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.String("conns", fmt.Sprintf("%d/%d", len(s.semaphore), s.maxConnections)),
				zap.Float64("mem_mb", float64(m.Alloc)/1024/1024))
		case <-s.stop:
			return
		}
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知大厅用户服务器即将关闭
	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的房间创建",
	}))

	s.log.Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.registry.ActiveGames()
		if activeGames == 0 {
			s.log.Info("✅ 所有对局已结束，服务器即将关闭")
			break
		}
		s.log.Info("⏳ 等待对局结束", zap.Int("active_games", activeGames))
		<-ticker.C
	}

	if activeGames := s.registry.ActiveGames(); activeGames > 0 {
		s.log.Warn("⚠️ 超时，仍有对局进行中，强制关闭", zap.Int("active_games", activeGames))
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.Broadcast(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
			Code:    protocol.ErrCodeServerMaintenance,
			Message: "🚧 服务器停机维护",
		}))

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), httpStopTimeout)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.log.Warn("HTTP 服务关闭失败", zap.Error(err))
			}
			cancel()
		}

		// 关闭所有客户端连接
		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		s.registry.Close()
		if s.store != nil {
			_ = s.store.Close()
		}

		s.log.Info("服务器已关闭")
	})
}
