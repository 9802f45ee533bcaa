package room

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/apperrors"
)

// Create 登记一个已创建的会话
func (r *Registry) Create(id string, s *Session) error {
	r.mu.Lock()
	if _, exists := r.rooms[id]; exists {
		r.mu.Unlock()
		return apperrors.ErrRoomExists
	}
	e := r.newEntry(id, s)
	r.rooms[id] = e
	r.mu.Unlock()

	e.mu.Lock()
	r.afterUpdate(id, e)
	e.mu.Unlock()

	r.log.Info("🏠 房间已创建", zap.String("room", id), zap.String("type", s.roomType.String()))
	return nil
}

// CreateRoom 生成房间号并创建房间，host 入 0 号座位
func (r *Registry) CreateRoom(host PlayerInput, rt RoomType) (string, ConnectResult, error) {
	r.mu.Lock()
	id := r.generateRoomID()
	s, err := NewSession(id, rt, host, r.sessionOpts...)
	if err != nil {
		r.mu.Unlock()
		return "", ConnectResult{}, err
	}
	e := r.newEntry(id, s)
	r.rooms[id] = e
	r.mu.Unlock()

	e.mu.Lock()
	r.afterUpdate(id, e)
	token := s.slots[0].Token
	e.mu.Unlock()

	r.log.Info("🏠 房间已创建",
		zap.String("room", id),
		zap.String("type", rt.String()),
		zap.String("host", host.Identity.Name))
	return id, ConnectResult{Seat: 0, Token: token}, nil
}

func (r *Registry) newEntry(id string, s *Session) *entry {
	e := &entry{session: s, clocks: s.clocks}
	s.setExpiry(func() { r.handleExpiry(id) })
	return e
}

// WithSession 独占访问房间并执行 fn，随后镜像房间快照
//
// 等待期间房间被移除时返回 ErrRoomNotFound。
func WithSession[R any](r *Registry, id string, fn func(*Session) (R, error)) (R, error) {
	var zero R
	e := r.lookup(id)
	if e == nil {
		return zero, apperrors.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return zero, apperrors.ErrRoomNotFound
	}

	out, err := fn(e.session)
	r.afterUpdate(id, e)
	return out, err
}

// Update 独占访问房间，不需要返回值时使用
func (r *Registry) Update(id string, fn func(*Session) error) error {
	_, err := WithSession(r, id, func(s *Session) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}

// Get 房间快照，可能略旧，仅用于查询
func (r *Registry) Get(id string) (Snapshot, bool) {
	e := r.lookup(id)
	if e == nil {
		return Snapshot{}, false
	}
	snap := e.snapshot.Load()
	if snap == nil {
		return Snapshot{}, false
	}
	return *snap, true
}

// List 所有房间快照，按创建时间排序
func (r *Registry) List() []Snapshot {
	entries := r.entries()
	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		if snap := e.snapshot.Load(); snap != nil {
			out = append(out, *snap)
		}
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Count 房间数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ActiveGames 进行中的对局数量
func (r *Registry) ActiveGames() int {
	count := 0
	for _, e := range r.entries() {
		if snap := e.snapshot.Load(); snap != nil && snap.State == StatePlaying {
			count++
		}
	}
	return count
}

// PlayerTimes 双方剩余时间，不获取房间锁
func (r *Registry) PlayerTimes(id string) ([Seats]time.Duration, bool) {
	var times [Seats]time.Duration
	e := r.lookup(id)
	if e == nil {
		return times, false
	}
	for i, c := range e.clocks {
		times[i] = c.Remaining()
	}
	return times, true
}

// Remove 移除房间
func (r *Registry) Remove(id string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.removed {
		r.removeLocked(id, e)
	}
}

func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

func (r *Registry) entries() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		out = append(out, e)
	}
	return out
}

// afterUpdate 持有房间锁时调用：记录战绩、维护驱逐计时器、发布快照并异步镜像
func (r *Registry) afterUpdate(id string, e *entry) {
	s := e.session
	e.touched = time.Now()

	if res := s.result; res != nil && res != e.recorded {
		e.recorded = res
		r.recordResult(res)
	}

	if s.AnyConnected() {
		if e.evict != nil {
			e.evict.Stop()
			e.evict = nil
		}
	} else if e.evict == nil {
		e.evict = time.AfterFunc(r.gracePeriod, func() { r.evictIfIdle(id, e) })
		r.log.Info("⏳ 房间内玩家全部掉线，等待重连", zap.String("room", id), zap.Duration("grace", r.gracePeriod))
	}

	snap := s.Snapshot()
	e.snapshot.Store(&snap)

	data := s.ToRoomData()
	go func() {
		if err := r.store.SaveRoom(context.Background(), id, data); err != nil {
			r.log.Warn("⚠️ 保存房间快照失败", zap.String("room", id), zap.Error(err))
		}
	}()
}

func (r *Registry) recordResult(res *Result) {
	names := res.Names
	go func() {
		for seat, name := range names {
			if err := r.store.RecordGameResult(context.Background(), name, res.Outcome(seat)); err != nil {
				r.log.Warn("⚠️ 记录战绩失败", zap.String("player", name), zap.Error(err))
			}
		}
	}()
}

// removeLocked 持有房间锁时调用
func (r *Registry) removeLocked(id string, e *entry) {
	e.removed = true
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	e.session.stopClocks()

	r.mu.Lock()
	if r.rooms[id] == e {
		delete(r.rooms, id)
	}
	r.mu.Unlock()

	go func() { _ = r.store.DeleteRoom(context.Background(), id) }()
}

func (r *Registry) evictIfIdle(id string, e *entry) {
	e.mu.Lock()
	if e.removed || e.session.AnyConnected() {
		e.mu.Unlock()
		return
	}
	snap := e.session.Snapshot()
	r.removeLocked(id, e)
	e.mu.Unlock()

	r.log.Info("🧹 房间内玩家超时未重连，房间已清理", zap.String("room", id))
	if h := r.getHooks().OnEvict; h != nil {
		h(id, snap)
	}
}

func (r *Registry) handleExpiry(id string) {
	res, err := WithSession(r, id, func(s *Session) (*Result, error) {
		return s.CheckTimeout(), nil
	})
	if err != nil || res == nil {
		return
	}
	r.log.Info("⏰ 玩家超时", zap.String("room", id), zap.String("winner", res.WinnerName))
	if h := r.getHooks().OnTimeout; h != nil {
		h(id, res)
	}
}

// generateRoomID 生成房间号，调用方持有注册表写锁
func (r *Registry) generateRoomID() string {
	for {
		code := make([]byte, roomIDLength)
		for i := range code {
			code[i] = roomIDChars[rand.IntN(len(roomIDChars))]
		}
		id := string(code)
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
}

// cleanupLoop 定期清理超时房间
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stop:
			return
		}
	}
}

// cleanup 清理无人操作且停留在等待状态过久的房间
func (r *Registry) cleanup(now time.Time) {
	for _, e := range r.entries() {
		e.mu.Lock()
		s := e.session
		if e.removed || s.state != StateWaiting || now.Sub(e.touched) <= r.roomTimeout {
			e.mu.Unlock()
			continue
		}
		snap := s.Snapshot()
		r.removeLocked(s.id, e)
		e.mu.Unlock()

		r.log.Info("🏠 房间超时已清理", zap.String("room", s.id))
		if h := r.getHooks().OnEvict; h != nil {
			h(s.id, snap)
		}
	}
}
