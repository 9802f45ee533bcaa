// Package convert 在房间模型与协议数据之间转换
package convert

import (
	"time"

	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/protocol"
)

// IdentityToRoom 将协议身份转换为房间身份
func IdentityToRoom(id protocol.Identity) room.Identity {
	return room.Identity{
		Name:              id.Name,
		Avatar:            id.Avatar,
		AvatarOrientation: id.AvatarOrientation,
		AvatarColor:       id.AvatarColor,
	}
}

// IdentityToProto 将房间身份转换为协议身份
func IdentityToProto(id room.Identity) protocol.Identity {
	return protocol.Identity{
		Name:              id.Name,
		Avatar:            id.Avatar,
		AvatarOrientation: id.AvatarOrientation,
		AvatarColor:       id.AvatarColor,
	}
}

// PlayerToInfo 将座位快照转换为 protocol.PlayerInfo
func PlayerToInfo(p room.PlayerSnapshot) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		Seat:      p.Seat,
		ConnID:    p.ConnID,
		Role:      p.Role,
		Connected: p.Connected,
		Remaining: p.Remaining.Milliseconds(),
		Identity:  IdentityToProto(p.Identity),
	}
}

// PlayersToInfos 转换全部座位
func PlayersToInfos(players []room.PlayerSnapshot) []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		infos[i] = PlayerToInfo(p)
	}
	return infos
}

// SnapshotToRoomInfo 将房间快照转换为 protocol.RoomInfo
//
// withDeck 为真时附带完整牌面，仅用于运维查询。
func SnapshotToRoomInfo(snap room.Snapshot, withDeck bool) protocol.RoomInfo {
	info := protocol.RoomInfo{
		RoomID:     snap.ID,
		RoomType:   snap.Type.String(),
		Duration:   int(snap.Type.Duration() / time.Second),
		State:      snap.State.String(),
		TurnHolder: snap.TurnHolder,
		TurnCount:  snap.TurnCount,
		Position:   snap.Position,
		Pending:    snap.Pending,
		Players:    PlayersToInfos(snap.Players),
		CreatedAt:  snap.CreatedAt.Unix(),
	}
	if withDeck {
		info.Deck = snap.Deck
	}
	return info
}

// SnapshotToPlayerInfo 双方玩家信息，空座位为 nil
func SnapshotToPlayerInfo(snap room.Snapshot) protocol.PlayerInfoPayload {
	var payload protocol.PlayerInfoPayload
	if p, ok := snap.Player(0); ok {
		info := PlayerToInfo(p)
		payload.Player1 = &info
	}
	if p, ok := snap.Player(1); ok {
		info := PlayerToInfo(p)
		payload.Player2 = &info
	}
	return payload
}

// TimesToProto 双方剩余时间（毫秒）
func TimesToProto(times [room.Seats]time.Duration) protocol.PlayerTimes {
	return protocol.PlayerTimes{
		P1: times[0].Milliseconds(),
		P2: times[1].Milliseconds(),
	}
}

// TurnToPayload 回合信息
func TurnToPayload(turn room.TurnInfo) protocol.TurnPayload {
	return protocol.TurnPayload{
		Holder:    turn.Holder,
		TurnCount: turn.Count,
		Times:     TimesToProto(turn.Times),
	}
}

// ResultToGameOver 对局结果
func ResultToGameOver(res *room.Result) protocol.GameOverPayload {
	return protocol.GameOverPayload{
		Reason:     string(res.Reason),
		Winner:     res.Winner,
		WinnerName: res.WinnerName,
		WinnerRole: res.WinnerRole,
	}
}
