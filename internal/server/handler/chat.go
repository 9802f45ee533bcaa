package handler

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/types"
)

const maxChatLength = 200

// handleChat 房间内聊天
func (h *Handler) handleChat(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChatPayload](msg)
	if err != nil {
		return
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" || utf8.RuneCountInString(text) > maxChatLength {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidArgs))
		return
	}

	// 聊天限流检查
	if h.chatLimiter != nil {
		allowed, reason := h.chatLimiter.AllowChat(client.GetID())
		if !allowed {
			client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, reason))
			return
		}
	}

	snap, ok := h.currentRoom(client)
	if !ok {
		return
	}
	seat := client.GetSeat()
	p, seated := snap.Player(seat)
	if !seated || p.ConnID != client.GetID() {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	h.broadcaster.BroadcastToRoom(snap.ID, codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{
		Text:   text,
		Author: p.Identity.Name,
		Time:   time.Now().Unix(),
	}))
}
