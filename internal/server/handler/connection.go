package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 凭令牌回到原座位
func (h *Handler) handleReconnect(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil || payload.RoomID == "" || payload.Token == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.seatClient(client, payload.RoomID, room.PlayerInput{
		ConnID: client.GetID(),
		Token:  payload.Token,
	})
}

// HandleDisconnect 连接断开：保留座位，通知对手
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	if h.chatLimiter != nil {
		h.chatLimiter.RemoveClient(client.GetID())
	}

	roomID := client.GetRoom()
	if roomID == "" {
		return
	}

	p, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.Player, error) {
		seat, err := s.Disconnect(client.GetID())
		if err != nil {
			return room.Player{}, err
		}
		p, _ := s.Player(seat)
		return p, nil
	})
	h.broadcaster.LeaveGroup(roomID, client.GetID())
	if err != nil {
		// 座位已被顶替或房间已移除
		return
	}

	h.log.Info("🔌 玩家掉线，保留座位",
		zap.String("room", roomID),
		zap.String("player", p.Identity.Name),
		zap.String("conn", client.GetID()))
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgOpponentDisconnected,
		protocol.OpponentDisconnectedPayload{
			PlayerID:   client.GetID(),
			PlayerName: p.Identity.Name,
		}))
}
