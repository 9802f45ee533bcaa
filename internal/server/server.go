// Package server WebSocket 接入层：连接管理、安全防护、房间分组广播
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/config"
	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/logger"
	"github.com/palemoky/chess-memory/internal/server/handler"
	"github.com/palemoky/chess-memory/internal/server/storage"
	"github.com/palemoky/chess-memory/internal/types"
)

const redisPingTimeout = 5 * time.Second

// Server WebSocket 服务器
type Server struct {
	config   *config.Config
	log      *zap.Logger
	store    *storage.RedisStore // Redis 不可用时为 nil
	registry *room.Registry
	handler  *handler.Handler
	upgrader websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	groups   map[string]map[string]types.ClientInterface
	groupsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	chatLimiter    *ChatRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer *http.Server
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewServer 创建服务器实例
//
// Redis 被禁用或无法连接时以无持久化模式运行：不镜像房间，排行榜为空。
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.Server.MaxConnections <= 0 {
		return nil, fmt.Errorf("max_connections 必须为正数: %d", cfg.Server.MaxConnections)
	}

	s := &Server{
		config:  cfg,
		log:     logger.L(),
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]types.ClientInterface),
		// 初始化安全组件
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		chatLimiter: NewChatRateLimiter(
			cfg.Security.ChatLimit.MaxPerSecond,
			cfg.Security.ChatLimit.MaxPerMinute,
			cfg.Security.ChatLimit.CooldownDuration(),
		),
		ipFilter: NewIPFilter(cfg.Security.IPWhitelist, cfg.Security.IPBlacklist),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		stop:           make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源验证在升级前由 originChecker 完成
		CheckOrigin: func(*http.Request) bool { return true },
	}

	s.connectRedis()

	opts := []room.Option{
		room.WithGracePeriod(cfg.Game.GracePeriodDuration()),
		room.WithRoomTimeout(cfg.Game.RoomTimeoutDuration()),
		room.WithLogger(s.log),
		room.WithSessionOptions(room.WithClockTick(cfg.Game.ClockTickDuration())),
	}
	deps := handler.HandlerDeps{
		Server:      s,
		Broadcaster: s,
		ChatLimiter: s.chatLimiter,
		Logger:      s.log,

		OperatorToken: cfg.Security.OperatorToken,
	}
	if s.store != nil {
		opts = append(opts, room.WithStore(s.store))
		deps.Leaderboard = s.store
	}

	s.registry = room.NewRegistry(opts...)
	deps.Registry = s.registry
	s.handler = handler.NewHandler(deps)
	s.registry.SetHooks(s.handler.Hooks())

	s.log.Info("🔒 安全配置",
		zap.Int("conn_per_sec", cfg.Security.RateLimit.MaxPerSecond),
		zap.Int("msg_per_sec", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("chat_per_sec", cfg.Security.ChatLimit.MaxPerSecond),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Int("ip_whitelist", len(cfg.Security.IPWhitelist)),
		zap.Int("ip_blacklist", len(cfg.Security.IPBlacklist)),
		zap.Bool("operator_rooms", cfg.Security.OperatorToken != ""))

	return s, nil
}

// connectRedis 连接 Redis，失败时降级为无持久化
func (s *Server) connectRedis() {
	if s.config.Redis.Disabled {
		s.log.Info("💾 Redis 已禁用，房间不做镜像")
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})

	store := storage.NewRedisStore(rdb, storage.WithRoomExpiration(s.config.Game.SnapshotTTLDuration()))

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		s.log.Warn("⚠️ Redis 连接失败，以无持久化模式运行", zap.String("addr", s.config.Redis.Addr), zap.Error(err))
		_ = store.Close()
		return
	}

	s.store = store
	s.log.Info("💾 Redis 已连接", zap.String("addr", s.config.Redis.Addr))
}

// Registry 房间注册表
func (s *Server) Registry() *room.Registry {
	return s.registry
}

// Routes HTTP 路由
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	// 启动监控 goroutine
	go s.monitorStats()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("🚀 服务器启动", zap.String("addr", "ws://"+addr+"/ws"), zap.Int("cpus", runtime.NumCPU()))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
