package apperrors

import (
	"errors"

	"github.com/palemoky/chess-memory/internal/protocol"
)

// Kind 错误分类，决定错误的传播方式
type Kind int

const (
	// KindNotFound 房间或玩家不存在
	KindNotFound Kind = iota + 1
	// KindInvalidInput 坐标、索引等格式错误
	KindInvalidInput
	// KindIllegalAction 不合规则的走法、非当前回合、状态不允许
	KindIllegalAction
	// KindStateConflict 保存的棋局无法解析，房间需要重置
	KindStateConflict
	// KindTimeout 有一方时间耗尽
	KindTimeout
	// KindAlreadyExists 房间号已被占用
	KindAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindIllegalAction:
		return "illegal_action"
	case KindStateConflict:
		return "state_conflict"
	case KindTimeout:
		return "timeout"
	case KindAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 同一错误码视为同一错误，便于 errors.Is 匹配预定义错误
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

func newError(kind Kind, code int) *GameError {
	return &GameError{Kind: kind, Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound    = newError(KindNotFound, protocol.ErrCodeRoomNotFound)
	ErrNotInRoom       = newError(KindNotFound, protocol.ErrCodeNotInRoom)
	ErrRoomExists      = newError(KindAlreadyExists, protocol.ErrCodeRoomExists)
	ErrRoomFull        = newError(KindIllegalAction, protocol.ErrCodeRoomFull)
	ErrAlreadyInRoom   = newError(KindIllegalAction, protocol.ErrCodeAlreadyInRoom)
	ErrInvalidRoomType = newError(KindInvalidInput, protocol.ErrCodeInvalidRoomType)
	ErrGameNotStart    = newError(KindIllegalAction, protocol.ErrCodeGameNotStart)
	ErrWrongState      = newError(KindIllegalAction, protocol.ErrCodeWrongState)
	ErrNotYourTurn     = newError(KindIllegalAction, protocol.ErrCodeNotYourTurn)
	ErrInvalidMove     = newError(KindInvalidInput, protocol.ErrCodeInvalidMove)
	ErrIllegalMove     = newError(KindIllegalAction, protocol.ErrCodeIllegalMove)
	ErrInvalidTile     = newError(KindInvalidInput, protocol.ErrCodeInvalidTile)
	ErrNoPendingClear  = newError(KindIllegalAction, protocol.ErrCodeNoPendingClear)
	ErrClearFailed     = newError(KindIllegalAction, protocol.ErrCodeClearFailed)
	ErrRewardPending   = newError(KindIllegalAction, protocol.ErrCodeRewardPending)
	ErrInCheck         = newError(KindIllegalAction, protocol.ErrCodeInCheck)
	ErrTimeout         = newError(KindTimeout, protocol.ErrCodeTimeout)
	ErrCorruptState    = newError(KindStateConflict, protocol.ErrCodeCorruptState)
	ErrForbidden       = newError(KindIllegalAction, protocol.ErrCodeForbidden)
)

// KindOf 返回错误的分类，非 GameError 返回 0
func KindOf(err error) Kind {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return 0
}

// IsKind 判断错误链中是否存在指定分类的 GameError
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
