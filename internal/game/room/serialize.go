package room

import (
	"time"

	"github.com/palemoky/chess-memory/internal/server/storage"
)

// Snapshot 房间只读快照（不含令牌）
type Snapshot struct {
	ID         string
	Type       RoomType
	State      State
	TurnHolder string
	TurnCount  uint
	Position   string
	Deck       []string
	Flipped    []int
	Pending    string
	Players    []PlayerSnapshot
	Result     *Result
	CreatedAt  time.Time
}

// PlayerSnapshot 座位快照
type PlayerSnapshot struct {
	Seat      int
	ConnID    string
	Identity  Identity
	Role      string
	Connected bool
	Remaining time.Duration
}

// Player 返回座位上的玩家
func (s Snapshot) Player(seat int) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.Seat == seat {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// Snapshot 生成快照
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Type:       s.roomType,
		State:      s.state,
		TurnHolder: s.turnHolder,
		TurnCount:  s.turnCount,
		Position:   s.position,
		Deck:       s.board.Deck(),
		Flipped:    s.board.Flipped(),
		Pending:    s.pendingClear,
		Players:    make([]PlayerSnapshot, 0, Seats),
		CreatedAt:  s.createdAt,
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	for i, p := range s.slots {
		if p == nil {
			continue
		}
		snap.Players = append(snap.Players, PlayerSnapshot{
			Seat:      i,
			ConnID:    p.ConnID,
			Identity:  p.Identity,
			Role:      p.Role(),
			Connected: p.Connected,
			Remaining: s.clocks[i].Remaining(),
		})
	}
	return snap
}

// ToRoomData 将会话转换为 Redis 镜像数据
func (s *Session) ToRoomData() *storage.RoomData {
	data := &storage.RoomData{
		ID:         s.id,
		Type:       s.roomType.String(),
		Duration:   int(s.roomType.Duration() / time.Second),
		State:      s.state.String(),
		TurnHolder: s.turnHolder,
		TurnCount:  s.turnCount,
		Position:   s.position,
		Deck:       s.board.String(),
		Pending:    s.pendingClear,
		Players:    make([]storage.PlayerData, 0, Seats),
		CreatedAt:  s.createdAt.Unix(),
		UpdatedAt:  time.Now().Unix(),
	}
	for i, p := range s.slots {
		if p == nil {
			continue
		}
		data.Players = append(data.Players, storage.PlayerData{
			Seat:              i,
			ConnID:            p.ConnID,
			Name:              p.Identity.Name,
			Avatar:            p.Identity.Avatar,
			AvatarOrientation: p.Identity.AvatarOrientation,
			AvatarColor:       p.Identity.AvatarColor,
			Role:              p.Role(),
			Connected:         p.Connected,
			RemainingMs:       s.clocks[i].Remaining().Milliseconds(),
		})
	}
	return data
}
