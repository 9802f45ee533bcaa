package handler

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/game/rules"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/protocol/convert"
	"github.com/palemoky/chess-memory/internal/types"
)

// handleFlipTile 处理翻牌
func (h *Handler) handleFlipTile(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.FlipTilePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	var turn room.TurnInfo
	ev, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.FlipEvent, error) {
		ev, err := s.FlipTile(client.GetID(), payload.Index)
		turn = s.Turn()
		return ev, err
	})
	if err != nil {
		h.actionFailed(client, roomID, err, ev.Result)
		return
	}
	if ev.Ignored {
		h.log.Debug("🙈 翻牌被忽略", zap.String("room", roomID), zap.Int("index", payload.Index))
		return
	}

	if ev.Started {
		h.broadcastTurn(roomID, turn)
	}
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgTileFlipped, protocol.TileFlippedPayload{
		Index: ev.Index,
		Label: ev.Label,
		Actor: client.GetID(),
	}))
}

// handleMatchTiles 处理配对
func (h *Handler) handleMatchTiles(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	var turn room.TurnInfo
	ev, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.MatchEvent, error) {
		ev, err := s.MatchTiles(client.GetID())
		turn = s.Turn()
		return ev, err
	})
	if err != nil {
		h.actionFailed(client, roomID, err, ev.Result)
		return
	}
	if ev.Ignored {
		return
	}

	if ev.Matched {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgTilesMatched, protocol.TilesMatchedPayload{
			Label:   ev.Match.Label,
			Indices: ev.Match.Indices,
			Actor:   client.GetID(),
		}))
		client.SendMessage(codec.MustNewMessage(protocol.MsgSelectPiece, protocol.SelectPiecePayload{
			Label: ev.Match.Label,
		}))
		return
	}

	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgUnflipTiles, protocol.UnflipTilesPayload{
		Indices:  ev.Unflipped,
		Position: ev.Position,
	}))
	h.broadcastTurn(roomID, turn)
}

// handleClearSquare 处理使用配对奖励清除棋子
func (h *Handler) handleClearSquare(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ClearSquarePayload](msg)
	if err != nil || payload.Square == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	var turn room.TurnInfo
	ev, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.ClearEvent, error) {
		ev, err := s.ClearSquare(client.GetID(), payload.Square)
		turn = s.Turn()
		return ev, err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrClearFailed) || errors.Is(err, apperrors.ErrInvalidMove) {
			client.SendMessage(codec.MustNewMessage(protocol.MsgClearFailed, protocol.ClearFailedPayload{
				Square: payload.Square,
				Reason: err.Error(),
			}))
			return
		}
		h.actionFailed(client, roomID, err, ev.Result)
		return
	}

	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgSquareClear, protocol.SquareClearedPayload{
		Square:   ev.Square,
		Piece:    ev.Piece.Label(),
		Position: ev.Position,
		Actor:    client.GetID(),
	}))
	if len(ev.Removed) > 0 {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgRemoveTiles, protocol.RemoveTilesPayload{
			Label:   ev.Piece.Label(),
			Indices: ev.Removed,
		}))
	}
	h.finishTurn(roomID, ev.Result, turn)
}

// handleApplyMove 处理走子
func (h *Handler) handleApplyMove(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ApplyMovePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	move := rules.Move{From: payload.From, To: payload.To, Promotion: payload.Promotion}
	var turn room.TurnInfo
	ev, err := room.WithSession(h.registry, roomID, func(s *room.Session) (room.MoveEvent, error) {
		ev, err := s.ApplyMove(client.GetID(), move)
		turn = s.Turn()
		return ev, err
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidMove):
			client.SendMessage(codec.MustNewMessage(protocol.MsgInvalidMove, protocol.MoveRejectedPayload{
				Move: move.UCI(), Reason: err.Error(),
			}))
		case errors.Is(err, apperrors.ErrIllegalMove):
			client.SendMessage(codec.MustNewMessage(protocol.MsgIllegalMove, protocol.MoveRejectedPayload{
				Move: move.UCI(), Reason: err.Error(),
			}))
		default:
			h.actionFailed(client, roomID, err, ev.Result)
		}
		return
	}

	moved := protocol.PieceMovedPayload{
		Move:     ev.Move.Notation,
		From:     move.From,
		To:       move.To,
		Promoted: ev.Move.Promoted,
		Position: ev.Move.Position,
		Actor:    client.GetID(),
	}
	if ev.Move.Captured != nil {
		moved.Captured = ev.Move.Captured.Label()
	}
	h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgPieceMoved, moved))

	if len(ev.Removed) > 0 {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgRemoveTiles, protocol.RemoveTilesPayload{
			Label:   moved.Captured,
			Indices: ev.Removed,
		}))
	}
	if len(ev.Upgrades) > 0 {
		h.broadcaster.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgUpgradeTile, protocol.UpgradeTilePayload{
			Tiles: convert.UpgradesToProto(ev.Upgrades),
		}))
	}
	h.finishTurn(roomID, ev.Result, turn)
}

// handleTimeout 客户端请求超时判定，未超时则回复双方剩余时间
func (h *Handler) handleTimeout(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	var times [room.Seats]time.Duration
	res, err := room.WithSession(h.registry, roomID, func(s *room.Session) (*room.Result, error) {
		res := s.CheckTimeout()
		times = s.Times()
		return res, nil
	})
	if err != nil {
		h.sendError(client, err)
		return
	}
	if res != nil {
		h.broadcastResult(roomID, res)
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgPlayerTimes, convert.TimesToProto(times)))
}

// finishTurn 对局结束则广播结果，否则广播新回合
func (h *Handler) finishTurn(roomID string, res *room.Result, turn room.TurnInfo) {
	if res != nil {
		h.broadcastResult(roomID, res)
		return
	}
	h.broadcastTurn(roomID, turn)
}
