package handler

import (
	"context"
	"crypto/subtle"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/protocol/convert"
	"github.com/palemoky/chess-memory/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	leaderboardTimeout      = 3 * time.Second
)

// currentRoom 客户端所在房间的快照
func (h *Handler) currentRoom(client types.ClientInterface) (room.Snapshot, bool) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return room.Snapshot{}, false
	}
	snap, ok := h.registry.Get(roomID)
	if !ok {
		h.sendError(client, apperrors.ErrRoomNotFound)
		return room.Snapshot{}, false
	}
	return snap, true
}

// handleGetPlayerTimes 双方剩余时间，不经过房间锁
func (h *Handler) handleGetPlayerTimes(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}
	times, ok := h.registry.PlayerTimes(roomID)
	if !ok {
		h.sendError(client, apperrors.ErrRoomNotFound)
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgPlayerTimes, convert.TimesToProto(times)))
}

// handlePlayerInfo 双方玩家信息
func (h *Handler) handlePlayerInfo(client types.ClientInterface) {
	snap, ok := h.currentRoom(client)
	if !ok {
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgPlayerInfo, convert.SnapshotToPlayerInfo(snap)))
}

// handleGetMemoryBoard 玩家视角的记忆牌面
func (h *Handler) handleGetMemoryBoard(client types.ClientInterface) {
	snap, ok := h.currentRoom(client)
	if !ok {
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgMemoryBoard, convert.MemoryBoard(snap.Deck, snap.Flipped)))
}

// handleRoomInfo 当前房间快照
func (h *Handler) handleRoomInfo(client types.ClientInterface) {
	snap, ok := h.currentRoom(client)
	if !ok {
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomInfo, protocol.RoomInfoPayload{
		Room: convert.SnapshotToRoomInfo(snap, false),
	}))
}

// handleRooms 全部房间（运维调试，附带完整牌面）
//
// 牌面未遮挡，只回复携带运维口令的请求。
func (h *Handler) handleRooms(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RoomsRequestPayload](msg)
	if err != nil {
		payload = &protocol.RoomsRequestPayload{}
	}
	if h.opToken == "" || subtle.ConstantTimeCompare([]byte(payload.Token), []byte(h.opToken)) != 1 {
		h.log.Warn("🚫 拒绝 rooms 请求", zap.String("client", client.GetID()), zap.Bool("enabled", h.opToken != ""))
		h.sendError(client, apperrors.ErrForbidden)
		return
	}

	snaps := h.registry.List()
	rooms := make([]protocol.RoomInfo, len(snaps))
	for i, snap := range snaps {
		rooms[i] = convert.SnapshotToRoomInfo(snap, true)
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgRooms, protocol.RoomsPayload{Rooms: rooms}))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		payload = &protocol.GetLeaderboardPayload{}
	}

	// 限制请求数量
	if payload.Limit <= 0 || payload.Limit > maxLeaderboardLimit {
		payload.Limit = defaultLeaderboardLimit
	}

	entries := []protocol.LeaderboardEntry{}
	if h.leaderboard != nil {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		result, err := h.leaderboard.GetLeaderboard(ctx, payload.Limit)
		if err != nil {
			h.log.Warn("⚠️ 获取排行榜失败", zap.Error(err))
			client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取排行榜失败"))
			return
		}
		entries = convert.LeaderboardToProto(result)
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboard, protocol.LeaderboardPayload{
		Entries: entries,
	}))
}
