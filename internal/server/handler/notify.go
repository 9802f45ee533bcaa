package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/protocol/convert"
	"github.com/palemoky/chess-memory/internal/types"
)

// sendError 向行动者发送错误消息
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessage(gameErr.Code))
		return
	}
	h.log.Warn("⚠️ 未分类的错误", zap.String("client", client.GetID()), zap.Error(err))
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// actionFailed 按错误分类传播对局动作的失败
//
// StateConflict 时房间已在同一次修改中重置，通知全房间；
// Timeout 时广播超时结果；其余错误只回复行动者。
func (h *Handler) actionFailed(client types.ClientInterface, roomID string, err error, res *room.Result) {
	switch apperrors.KindOf(err) {
	case apperrors.KindStateConflict:
		h.log.Error("💥 棋局数据损坏，房间已重置", zap.String("room", roomID), zap.Error(err))
		h.broadcaster.BroadcastToRoom(roomID, codec.NewErrorMessage(protocol.ErrCodeCorruptState))
		h.broadcastReset(roomID, "corrupt_state")
	case apperrors.KindTimeout:
		if res != nil {
			h.broadcastResult(roomID, res)
		}
	default:
		h.log.Debug("🙅 动作被拒绝",
			zap.String("room", roomID),
			zap.String("client", client.GetID()),
			zap.Error(err))
		h.sendError(client, err)
	}
}

// broadcastTurn 广播回合信息
func (h *Handler) broadcastTurn(roomID string, turn room.TurnInfo) {
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgTurn, convert.TurnToPayload(turn)))
}

// broadcastResult 广播对局结果，将死、逼和与超时另有专门通知
func (h *Handler) broadcastResult(roomID string, res *room.Result) {
	payload := convert.ResultToGameOver(res)
	switch res.Reason {
	case room.ReasonCheckmate:
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgCheckmate, payload))
	case room.ReasonStalemate:
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgStalemate, payload))
	case room.ReasonTimeout:
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgTimeout, payload))
	}
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgGameOver, payload))

	h.log.Info("🏁 对局结束",
		zap.String("room", roomID),
		zap.String("reason", string(res.Reason)),
		zap.String("winner", res.WinnerName))
}

// broadcastReset 广播重新开局及新的记忆牌面
func (h *Handler) broadcastReset(roomID, reason string) {
	snap, ok := h.registry.Get(roomID)
	if !ok {
		return
	}
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgGameReset, protocol.GameResetPayload{
		State:    snap.State.String(),
		Position: snap.Position,
		Reason:   reason,
	}))
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgMemoryBoard,
		convert.MemoryBoard(snap.Deck, snap.Flipped)))
}

// detach 让客户端脱离房间
func (h *Handler) detach(client types.ClientInterface, roomID string) {
	h.broadcaster.LeaveGroup(roomID, client.GetID())
	if client.GetRoom() == roomID {
		client.SetRoom("")
		client.SetSeat(-1)
	}
}

// onTimeout 时钟归零
func (h *Handler) onTimeout(roomID string, res *room.Result) {
	h.log.Info("⏰ 时间耗尽", zap.String("room", roomID), zap.String("winner", res.WinnerName))
	h.broadcastResult(roomID, res)
	if times, ok := h.registry.PlayerTimes(roomID); ok {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgPlayerTimes, convert.TimesToProto(times)))
	}
}

// onEvict 房间被移除，解除残留连接与房间的绑定
func (h *Handler) onEvict(roomID string, snap room.Snapshot) {
	h.log.Info("🧹 房间已移除", zap.String("room", roomID), zap.String("state", snap.State.String()))
	for _, p := range snap.Players {
		client := h.server.GetClientByID(p.ConnID)
		if client == nil {
			continue
		}
		if client.GetRoom() == roomID {
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRoomNotFound))
		}
		h.detach(client, roomID)
	}
}
