//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/types"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) GetClientByID(id string) types.ClientInterface {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.ClientInterface)
}

// Broadcast 一次广播记录
type Broadcast struct {
	RoomID   string
	ExceptID string
	Msg      *protocol.Message
}

// RecordingBroadcaster 内存分组广播器，转发给组内客户端并记录每次广播
type RecordingBroadcaster struct {
	mu         sync.Mutex
	groups     map[string]map[string]types.ClientInterface
	broadcasts []Broadcast
}

// NewRecordingBroadcaster 创建广播器
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{groups: make(map[string]map[string]types.ClientInterface)}
}

func (b *RecordingBroadcaster) JoinGroup(roomID string, client types.ClientInterface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[roomID]
	if !ok {
		g = make(map[string]types.ClientInterface)
		b.groups[roomID] = g
	}
	g[client.GetID()] = client
}

func (b *RecordingBroadcaster) LeaveGroup(roomID, clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.groups[roomID]; ok {
		delete(g, clientID)
		if len(g) == 0 {
			delete(b.groups, roomID)
		}
	}
}

func (b *RecordingBroadcaster) BroadcastToRoom(roomID string, msg *protocol.Message) {
	b.BroadcastToRoomExcept(roomID, "", msg)
}

func (b *RecordingBroadcaster) BroadcastToRoomExcept(roomID, exceptID string, msg *protocol.Message) {
	b.mu.Lock()
	b.broadcasts = append(b.broadcasts, Broadcast{RoomID: roomID, ExceptID: exceptID, Msg: msg})
	members := make([]types.ClientInterface, 0, len(b.groups[roomID]))
	for id, c := range b.groups[roomID] {
		if id != exceptID {
			members = append(members, c)
		}
	}
	b.mu.Unlock()

	for _, c := range members {
		c.SendMessage(msg)
	}
}

// Members 组内客户端 ID
func (b *RecordingBroadcaster) Members(roomID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.groups[roomID]))
	for id := range b.groups[roomID] {
		ids = append(ids, id)
	}
	return ids
}

// Broadcasts 广播记录副本
func (b *RecordingBroadcaster) Broadcasts() []Broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Broadcast, len(b.broadcasts))
	copy(out, b.broadcasts)
	return out
}
