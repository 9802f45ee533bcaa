//go:build !production

package room

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/chess-memory/internal/game/tiles"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

// MockStore 存储 mock
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error {
	args := m.Called(ctx, roomID, data)
	return args.Error(0)
}

func (m *MockStore) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockStore) RecordGameResult(ctx context.Context, playerName string, outcome storage.Outcome) error {
	args := m.Called(ctx, playerName, outcome)
	return args.Error(0)
}

// NewTestSession 创建双方已入座的会话，host 为 p1，对手为 p2
func NewTestSession(rt RoomType, opts ...SessionOption) *Session {
	s, err := NewSession("TEST01", rt, PlayerInput{ConnID: "p1", Identity: Identity{Name: "alice"}}, opts...)
	if err != nil {
		panic(err)
	}
	if _, err := s.Connect(PlayerInput{ConnID: "p2", Identity: Identity{Name: "bob"}}); err != nil {
		panic(err)
	}
	return s
}

// SetPosition 直接设置棋局（测试用）
func (s *Session) SetPosition(fen string) {
	s.position = fen
}

// SetTiles 用给定的牌替换记忆棋盘，其余位置为空（测试用）
func (s *Session) SetTiles(labels ...string) error {
	deck := make([]string, tiles.DeckSize)
	copy(deck, labels)
	b, err := tiles.Parse(strings.Join(deck, ","), s.cfg.tileOpts...)
	if err != nil {
		return err
	}
	s.board = b
	return nil
}
