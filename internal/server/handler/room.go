package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/protocol/convert"
	"github.com/palemoky/chess-memory/internal/types"
)

// seated 入座后在房间锁内取得的一致视图
type seated struct {
	res  room.ConnectResult
	snap room.Snapshot
	turn room.TurnInfo
}

// identityOf 补全身份，未填昵称时随机生成
func identityOf(id protocol.Identity) room.Identity {
	out := convert.IdentityToRoom(id)
	if out.Name == "" {
		out.Name = GenerateNickname()
	}
	return out
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "服务器维护中，暂停创建房间"))
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	rt := room.Casual()
	switch {
	case payload.Time < 0:
		h.sendError(client, apperrors.ErrInvalidRoomType)
		return
	case payload.Time > 0:
		rt = room.Timed(time.Duration(payload.Time) * time.Second)
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.handleLeaveRoom(client)
	}

	in := room.PlayerInput{ConnID: client.GetID(), Identity: identityOf(payload.Identity)}
	roomID, res, err := h.registry.CreateRoom(in, rt)
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.bind(client, roomID, res)
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 维护模式下只允许凭令牌回到原座位
	if h.server.IsMaintenanceMode() && payload.Token == "" {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "服务器维护中，暂停加入房间"))
		return
	}

	in := room.PlayerInput{ConnID: client.GetID(), Token: payload.Token}
	if payload.Token == "" || payload.Name != "" {
		in.Identity = identityOf(payload.Identity)
	}
	h.seatClient(client, payload.RoomID, in)
}

// seatClient 加入、重连共用的入座流程
func (h *Handler) seatClient(client types.ClientInterface, roomID string, in room.PlayerInput) {
	// 如果已在其他房间中，先离开
	if current := client.GetRoom(); current != "" && current != roomID {
		h.handleLeaveRoom(client)
	}

	out, err := room.WithSession(h.registry, roomID, func(s *room.Session) (seated, error) {
		res, err := s.Connect(in)
		if err != nil {
			return seated{}, err
		}
		return seated{res: res, snap: s.Snapshot(), turn: s.Turn()}, nil
	})
	if err != nil {
		h.log.Debug("🚪 入座失败", zap.String("room", roomID), zap.String("client", client.GetID()), zap.Error(err))
		client.SendMessage(codec.MustNewMessage(protocol.MsgJoinFailed, protocol.JoinFailedPayload{
			RoomID: roomID,
			Reason: err.Error(),
		}))
		return
	}

	// 顶替了旧连接，旧连接不再接收该房间的消息
	if prev := out.res.PrevConnID; prev != "" && prev != client.GetID() {
		if old := h.server.GetClientByID(prev); old != nil {
			h.detach(old, roomID)
		} else {
			h.broadcaster.LeaveGroup(roomID, prev)
		}
	}

	h.bind(client, roomID, out.res)
	if out.res.Reconnected || out.res.Replaced {
		h.log.Info("🔄 玩家回到座位",
			zap.String("room", roomID),
			zap.Int("seat", out.res.Seat),
			zap.Bool("replaced", out.res.Replaced))
	}

	if out.snap.State == room.StateReady || out.snap.State == room.StatePlaying {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgRoomFull, protocol.RoomFullPayload{
			State:   out.snap.State.String(),
			Players: convert.PlayersToInfos(out.snap.Players),
		}))
	}
	if out.snap.State != room.StateWaiting {
		client.SendMessage(codec.MustNewMessage(protocol.MsgMemoryBoard, convert.MemoryBoard(out.snap.Deck, out.snap.Flipped)))
	}
	if out.res.Resumed {
		h.broadcastTurn(roomID, out.turn)
	}
}

// bind 绑定客户端与座位并回复 room_joined
func (h *Handler) bind(client types.ClientInterface, roomID string, res room.ConnectResult) {
	client.SetRoom(roomID)
	client.SetSeat(res.Seat)
	h.broadcaster.JoinGroup(roomID, client)

	snap, _ := h.registry.Get(roomID)
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID:   roomID,
		RoomType: snap.Type.String(),
		Duration: int(snap.Type.Duration() / time.Second),
		Seat:     res.Seat,
		Token:    res.Token,
	}))
}

// handleLeaveRoom 处理离开房间，座位保留到宽限期结束
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	out, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.LeaveResult, error) {
		return s.Leave(client.GetID())
	})
	h.detach(client, roomID)
	if err != nil {
		return
	}

	h.log.Info("👋 玩家离开房间", zap.String("room", roomID), zap.String("player", out.Player.Identity.Name))
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgOpponentDisconnected,
		protocol.OpponentDisconnectedPayload{
			PlayerID:   client.GetID(),
			PlayerName: out.Player.Identity.Name,
			Left:       true,
		}))
}

// handleResign 认输
func (h *Handler) handleResign(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	res, err := room.WithSession(h.registry, roomID, func(s *room.Session) (*room.Result, error) {
		return s.Resign(client.GetID())
	})
	if err != nil {
		h.sendError(client, err)
		return
	}
	h.broadcastResult(roomID, res)
}

// handleStartGame 开局，发起者执白
func (h *Handler) handleStartGame(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	turn, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.TurnInfo, error) {
		if err := s.StartGame(client.GetID()); err != nil {
			return room.TurnInfo{}, err
		}
		return s.Turn(), nil
	})
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.log.Info("♟️ 对局开始", zap.String("room", roomID), zap.String("white", turn.Holder))
	h.broadcastTurn(roomID, turn)
}

// handleResetGame 重新开局
func (h *Handler) handleResetGame(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	err := h.registry.Update(roomID, func(s *room.Session) error {
		if s.SeatOf(client.GetID()) < 0 {
			return apperrors.ErrNotInRoom
		}
		s.Reset()
		return nil
	})
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.log.Info("🔁 重新开局", zap.String("room", roomID), zap.String("by", client.GetID()))
	h.broadcastReset(roomID, "")
}
