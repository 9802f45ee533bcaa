package handler

import (
	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/logger"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	Broadcaster types.Broadcaster
	Registry    *room.Registry
	ChatLimiter types.ChatLimiter
	Leaderboard types.Leaderboard
	Logger      *zap.Logger

	// OperatorToken rooms 请求须携带的口令，空则拒绝全部 rooms 请求
	OperatorToken string
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	broadcaster types.Broadcaster
	registry    *room.Registry
	chatLimiter types.ChatLimiter
	leaderboard types.Leaderboard
	opToken     string
	log         *zap.Logger
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		broadcaster: deps.Broadcaster,
		registry:    deps.Registry,
		chatLimiter: deps.ChatLimiter,
		leaderboard: deps.Leaderboard,
		opToken:     deps.OperatorToken,
		log:         deps.Logger,
	}
	if h.log == nil {
		h.log = logger.L()
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgStartGame:  func(c types.ClientInterface, _ *protocol.Message) { h.handleStartGame(c) },
		protocol.MsgResetGame:  func(c types.ClientInterface, _ *protocol.Message) { h.handleResetGame(c) },
		protocol.MsgResign:     func(c types.ClientInterface, _ *protocol.Message) { h.handleResign(c) },

		// 对局操作
		protocol.MsgFlipTile:    h.handleFlipTile,
		protocol.MsgMatchTiles:  func(c types.ClientInterface, _ *protocol.Message) { h.handleMatchTiles(c) },
		protocol.MsgClearSquare: h.handleClearSquare,
		protocol.MsgApplyMove:   h.handleApplyMove,
		protocol.MsgTimeout:     func(c types.ClientInterface, _ *protocol.Message) { h.handleTimeout(c) },

		// 信息查询
		protocol.MsgGetPlayerTimes: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetPlayerTimes(c) },
		protocol.MsgPlayerInfo:     func(c types.ClientInterface, _ *protocol.Message) { h.handlePlayerInfo(c) },
		protocol.MsgGetMemoryBoard: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetMemoryBoard(c) },
		protocol.MsgRoomInfo:       func(c types.ClientInterface, _ *protocol.Message) { h.handleRoomInfo(c) },
		protocol.MsgRooms:          h.handleRooms,
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
		protocol.MsgChat:           h.handleChat,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		}
	}()

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	h.log.Warn("⚠️ 未知消息类型",
		zap.String("type", string(msg.Type)),
		zap.String("client", client.GetID()),
		zap.Int("payload_bytes", len(msg.Payload)))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// Hooks 房间被动事件回调，由服务器注册到房间注册表
func (h *Handler) Hooks() room.Hooks {
	return room.Hooks{
		OnTimeout: h.onTimeout,
		OnEvict:   h.onEvict,
	}
}
