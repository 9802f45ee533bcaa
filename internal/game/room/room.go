package room

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/game/clock"
	"github.com/palemoky/chess-memory/internal/logger"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

const (
	roomIDLength = 6                                  // 房间号长度
	roomIDChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // 房间号字符集

	// DefaultGracePeriod 全员掉线后房间保留时长
	DefaultGracePeriod = 2 * time.Minute
	// DefaultRoomTimeout 等待中的房间超时时长
	DefaultRoomTimeout = 10 * time.Minute

	cleanupInterval = time.Minute
)

// Store 房间镜像与战绩存储
type Store interface {
	SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, roomID string) error
	RecordGameResult(ctx context.Context, playerName string, outcome storage.Outcome) error
}

type noopStore struct{}

func (noopStore) SaveRoom(context.Context, string, *storage.RoomData) error { return nil }
func (noopStore) DeleteRoom(context.Context, string) error                  { return nil }
func (noopStore) RecordGameResult(context.Context, string, storage.Outcome) error {
	return nil
}

// Hooks 房间被动事件回调，均在房间锁外执行
type Hooks struct {
	// OnTimeout 时钟归零导致对局结束
	OnTimeout func(roomID string, res *Result)
	// OnEvict 房间因超时或全员掉线被移除
	OnEvict func(roomID string, snap Snapshot)
}

// entry 房间条目：每个房间一把锁
type entry struct {
	mu       sync.Mutex
	session  *Session
	clocks   [Seats]*clock.Clock
	snapshot atomic.Pointer[Snapshot]
	removed  bool
	evict    *time.Timer
	recorded *Result
	touched  time.Time // 最近一次修改
}

// Registry 房间注册表
//
// 对同一房间的修改只能经由 WithSession / Update，同一时刻至多一个在进行。
// 锁顺序：房间锁 → 注册表锁，持有注册表锁时不获取房间锁。
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entry

	store       Store
	log         *zap.Logger
	gracePeriod time.Duration
	roomTimeout time.Duration
	sessionOpts []SessionOption

	hooksMu sync.RWMutex
	hooks   Hooks

	stop      chan struct{}
	closeOnce sync.Once
}

// Option 注册表选项
type Option func(*Registry)

// WithStore 指定镜像存储，nil 表示不落库
func WithStore(s Store) Option {
	return func(r *Registry) {
		if s != nil {
			r.store = s
		}
	}
}

// WithGracePeriod 全员掉线后房间保留时长
func WithGracePeriod(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.gracePeriod = d
		}
	}
}

// WithRoomTimeout 等待中的房间超时时长
func WithRoomTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.roomTimeout = d
		}
	}
}

// WithLogger 指定 logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSessionOptions 新建房间时使用的会话选项
func WithSessionOptions(opts ...SessionOption) Option {
	return func(r *Registry) {
		r.sessionOpts = append(r.sessionOpts, opts...)
	}
}

// NewRegistry 创建房间注册表并启动清理协程
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:       make(map[string]*entry),
		store:       noopStore{},
		log:         logger.L(),
		gracePeriod: DefaultGracePeriod,
		roomTimeout: DefaultRoomTimeout,
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.cleanupLoop()

	return r
}

// SetHooks 设置被动事件回调
func (r *Registry) SetHooks(h Hooks) {
	r.hooksMu.Lock()
	r.hooks = h
	r.hooksMu.Unlock()
}

func (r *Registry) getHooks() Hooks {
	r.hooksMu.RLock()
	defer r.hooksMu.RUnlock()
	return r.hooks
}

// Close 停止清理协程、驱逐计时器与所有时钟
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})

	for _, e := range r.entries() {
		e.mu.Lock()
		if e.evict != nil {
			e.evict.Stop()
			e.evict = nil
		}
		e.session.stopClocks()
		e.mu.Unlock()
	}
}
