package types

import (
	"context"

	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(roomID string)
	GetSeat() int
	SetSeat(seat int)
	SendMessage(msg *protocol.Message)
	Close()
}

// Broadcaster 房间分组广播
type Broadcaster interface {
	JoinGroup(roomID string, client ClientInterface)
	LeaveGroup(roomID, clientID string)
	BroadcastToRoom(roomID string, msg *protocol.Message)
	BroadcastToRoomExcept(roomID, exceptID string, msg *protocol.Message)
}

// ChatLimiter 聊天速率限制器接口
type ChatLimiter interface {
	AllowChat(clientID string) (allowed bool, reason string)
	RemoveClient(clientID string)
}

// Leaderboard 排行榜查询接口
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
}
