// Package clock 实现玩家倒计时时钟
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTick 默认每秒走一格
const DefaultTick = time.Second

// Clock 单个玩家的倒计时
//
// 每个运行中的倒计时都由 Clock 持有取消句柄，Stop 返回时倒计时协程一定已退出。
// 同一房间两只时钟的互斥由房间保证，Clock 本身不关心。
type Clock struct {
	tick      time.Duration
	remaining atomic.Int64

	mu       sync.Mutex
	onExpire func()
	cancel   chan struct{}
	done     chan struct{}
}

// Option 时钟选项
type Option func(*Clock)

// WithTick 设置走秒间隔，每次走秒扣除一个间隔
func WithTick(tick time.Duration) Option {
	return func(c *Clock) {
		if tick > 0 {
			c.tick = tick
		}
	}
}

// WithExpiry 设置归零回调，回调在新的协程中执行
func WithExpiry(fn func()) Option {
	return func(c *Clock) {
		c.onExpire = fn
	}
}

// New 创建时钟，初始剩余时间为 d
func New(d time.Duration, opts ...Option) *Clock {
	c := &Clock{tick: DefaultTick}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining.Store(int64(d))
	return c
}

// SetExpiry 替换归零回调，下一次 Start 生效
func (c *Clock) SetExpiry(fn func()) {
	c.mu.Lock()
	c.onExpire = fn
	c.mu.Unlock()
}

// Start 取消已有倒计时后开始新的倒计时，剩余时间为零时不启动
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	if c.remaining.Load() <= 0 {
		return
	}

	cancel := make(chan struct{})
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	go c.run(cancel, done, c.onExpire)
}

// Stop 取消倒计时并等待其退出，不改变剩余时间
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Reset 停止倒计时并将剩余时间设为 d
func (c *Clock) Reset(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining.Store(int64(d))
}

// Remaining 返回剩余时间，无锁读取
func (c *Clock) Remaining() time.Duration {
	return time.Duration(c.remaining.Load())
}

// Expired 剩余时间是否已归零
func (c *Clock) Expired() bool {
	return c.remaining.Load() <= 0
}

// Running 是否有倒计时在运行
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Clock) stopLocked() {
	if c.cancel == nil {
		return
	}
	close(c.cancel)
	<-c.done
	c.cancel, c.done = nil, nil
}

func (c *Clock) run(cancel <-chan struct{}, done chan<- struct{}, onExpire func()) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	expired := false
	defer func() {
		close(done)
		if expired && onExpire != nil {
			go onExpire()
		}
	}()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			// 运行期间只有本协程写 remaining
			left := max(c.remaining.Load()-int64(c.tick), 0)
			c.remaining.Store(left)
			if left == 0 {
				expired = true
				return
			}
		}
	}
}
