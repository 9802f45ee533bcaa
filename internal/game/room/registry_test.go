package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	reg := NewRegistry(opts...)
	t.Cleanup(reg.Close)
	return reg
}

func newRedisStore(t *testing.T) *storage.RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return storage.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func host(name string) PlayerInput {
	return PlayerInput{ConnID: "conn-" + name, Identity: Identity{Name: name}}
}

func TestRegistry_CreateRoomAndGet(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	id, res, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)
	assert.Len(t, id, roomIDLength)
	assert.Equal(t, 0, res.Seat)
	assert.NotEmpty(t, res.Token)

	snap, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, StateWaiting, snap.State)
	assert.Len(t, snap.Players, 1)
	assert.Equal(t, 1, reg.Count())

	_, ok = reg.Get("NOPE00")
	assert.False(t, ok)
}

func TestRegistry_CreateRoomRejectsInvalidType(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	_, _, err := reg.CreateRoom(host("alice"), Timed(-time.Second))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRoomType)
	assert.Zero(t, reg.Count())
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	s1, err := NewSession("DUP001", Casual(), host("a"))
	require.NoError(t, err)
	s2, err := NewSession("DUP001", Casual(), host("b"))
	require.NoError(t, err)

	require.NoError(t, reg.Create("DUP001", s1))
	assert.ErrorIs(t, reg.Create("DUP001", s2), apperrors.ErrRoomExists)
}

func TestRegistry_WithSession(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)

	res, err := WithSession(reg, id, func(s *Session) (ConnectResult, error) {
		return s.Connect(host("bob"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Seat)

	snap, _ := reg.Get(id)
	assert.Equal(t, StateReady, snap.State)

	_, err = WithSession(reg, "NOPE00", func(s *Session) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestRegistry_ConcurrentUpdatesAreSerialized(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Update(id, func(s *Session) error {
				n := s.turnCount
				time.Sleep(time.Microsecond)
				s.turnCount = n + 1
				return nil
			})
		}()
	}
	wg.Wait()

	snap, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint(workers), snap.TurnCount)
}

func TestRegistry_ListAndActiveGames(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	a, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)
	_, _, err = reg.CreateRoom(host("carol"), Casual())
	require.NoError(t, err)

	require.NoError(t, reg.Update(a, func(s *Session) error {
		if _, err := s.Connect(host("bob")); err != nil {
			return err
		}
		return s.StartGame("conn-alice")
	}))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, reg.ActiveGames())
}

func TestRegistry_LeaveKeepsRoomUntilGraceExpires(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, WithGracePeriod(30*time.Millisecond))
	evicted := make(chan string, 1)
	reg.SetHooks(Hooks{OnEvict: func(id string, _ Snapshot) { evicted <- id }})

	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)

	err = reg.Update(id, func(s *Session) error {
		_, err := s.Leave("conn-alice")
		return err
	})
	require.NoError(t, err)

	snap, ok := reg.Get(id)
	require.True(t, ok, "离开后座位保留")
	require.Len(t, snap.Players, 1)
	assert.False(t, snap.Players[0].Connected)

	select {
	case got := <-evicted:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("room was not evicted")
	}
	err = reg.Update(id, func(s *Session) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestRegistry_GraceEviction(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, WithGracePeriod(20*time.Millisecond))
	evicted := make(chan string, 1)
	reg.SetHooks(Hooks{OnEvict: func(id string, _ Snapshot) { evicted <- id }})

	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)
	require.NoError(t, reg.Update(id, func(s *Session) error {
		_, err := s.Disconnect("conn-alice")
		return err
	}))

	select {
	case got := <-evicted:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("room was not evicted")
	}
	assert.Zero(t, reg.Count())
}

func TestRegistry_ReconnectCancelsEviction(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, WithGracePeriod(50*time.Millisecond))
	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)

	require.NoError(t, reg.Update(id, func(s *Session) error {
		_, err := s.Disconnect("conn-alice")
		return err
	}))
	require.NoError(t, reg.Update(id, func(s *Session) error {
		_, err := s.Connect(PlayerInput{ConnID: "conn-alice-2", Identity: Identity{Name: "alice"}})
		return err
	}))

	time.Sleep(120 * time.Millisecond)
	_, ok := reg.Get(id)
	assert.True(t, ok)
}

func TestRegistry_CleanupStaleWaitingRooms(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, WithRoomTimeout(time.Minute))
	var mu sync.Mutex
	var evicted []string
	reg.SetHooks(Hooks{OnEvict: func(id string, _ Snapshot) {
		mu.Lock()
		evicted = append(evicted, id)
		mu.Unlock()
	}})

	waiting, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)
	ready, _, err := reg.CreateRoom(host("carol"), Casual())
	require.NoError(t, err)
	require.NoError(t, reg.Update(ready, func(s *Session) error {
		_, err := s.Connect(host("dave"))
		return err
	}))

	reg.cleanup(time.Now())
	assert.Equal(t, 2, reg.Count())

	reg.cleanup(time.Now().Add(2 * time.Minute))
	_, ok := reg.Get(waiting)
	assert.False(t, ok)
	_, ok = reg.Get(ready)
	assert.True(t, ok)

	mu.Lock()
	assert.Equal(t, []string{waiting}, evicted)
	mu.Unlock()
}

func TestRegistry_TimeoutHook(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, WithSessionOptions(WithClockTick(testTick)))
	results := make(chan *Result, 1)
	reg.SetHooks(Hooks{OnTimeout: func(_ string, res *Result) { results <- res }})

	id, _, err := reg.CreateRoom(host("alice"), Timed(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, reg.Update(id, func(s *Session) error {
		if _, err := s.Connect(host("bob")); err != nil {
			return err
		}
		return s.StartGame("conn-alice")
	}))

	select {
	case res := <-results:
		assert.Equal(t, ReasonTimeout, res.Reason)
		assert.Equal(t, "bob", res.WinnerName)
	case <-time.After(time.Second):
		t.Fatal("timeout hook not called")
	}

	snap, _ := reg.Get(id)
	assert.Equal(t, StateOver, snap.State)
	times, ok := reg.PlayerTimes(id)
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), times[0])
	assert.Equal(t, 20*time.Millisecond, times[1])
}

func TestRegistry_MirrorsToRedis(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	reg := newTestRegistry(t, WithStore(store))
	id, _, err := reg.CreateRoom(host("alice"), Timed(time.Minute))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		data, err := store.LoadRoom(context.Background(), id)
		return err == nil && data != nil && data.Type == "timed"
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, reg.Update(id, func(s *Session) error {
		if _, err := s.Connect(host("bob")); err != nil {
			return err
		}
		if err := s.StartGame("conn-alice"); err != nil {
			return err
		}
		_, err := s.Resign("conn-alice")
		return err
	}))

	assert.Eventually(t, func() bool {
		stats, err := store.GetPlayerStats(context.Background(), "bob")
		return err == nil && stats != nil && stats.Wins == 1
	}, time.Second, 10*time.Millisecond)

	stats, err := store.GetPlayerStats(context.Background(), "alice")
	if assert.NoError(t, err) && assert.NotNil(t, stats) {
		assert.Equal(t, 1, stats.Losses)
	}
}

func TestRegistry_RemoveDeletesSnapshot(t *testing.T) {
	t.Parallel()

	store := new(MockStore)
	store.On("SaveRoom", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	deleted := make(chan string, 1)
	store.On("DeleteRoom", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { deleted <- args.String(1) }).
		Return(nil)

	reg := newTestRegistry(t, WithStore(store))
	id, _, err := reg.CreateRoom(host("alice"), Casual())
	require.NoError(t, err)

	reg.Remove(id)

	select {
	case got := <-deleted:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("DeleteRoom not called")
	}
	_, ok := reg.Get(id)
	assert.False(t, ok)
}
