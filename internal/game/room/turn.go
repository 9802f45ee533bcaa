package room

import (
	"time"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/rules"
	"github.com/palemoky/chess-memory/internal/game/tiles"
)

// TurnInfo 回合信息
type TurnInfo struct {
	Holder string
	Count  uint
	Times  [Seats]time.Duration
}

// Turn 返回当前回合信息
func (s *Session) Turn() TurnInfo {
	return TurnInfo{Holder: s.turnHolder, Count: s.turnCount, Times: s.Times()}
}

// Times 双方剩余时间
func (s *Session) Times() [Seats]time.Duration {
	var t [Seats]time.Duration
	for i, c := range s.clocks {
		t[i] = c.Remaining()
	}
	return t
}

// Running 正在走的时钟所属座位，没有返回 -1
func (s *Session) Running() int {
	for i, c := range s.clocks {
		if c.Running() {
			return i
		}
	}
	return -1
}

// StartGame 开局：发起者执白先走
func (s *Session) StartGame(initiator string) error {
	seat := s.SeatOf(initiator)
	if seat < 0 {
		return apperrors.ErrNotInRoom
	}
	switch s.state {
	case StateReady:
	case StateWaiting:
		return apperrors.ErrGameNotStart
	default:
		return apperrors.ErrWrongState
	}
	s.start(seat)
	return nil
}

func (s *Session) start(seat int) {
	s.slots[seat].Color = rules.White
	s.slots[1-seat].Color = rules.Black
	s.turnHolder = s.slots[seat].ConnID
	s.state = StatePlaying
	if s.roomType.IsTimed() {
		s.clocks[seat].Start()
	}
}

// switchTurn 先停当前时钟再启动对方时钟
func (s *Session) switchTurn() {
	if s.state != StatePlaying {
		return
	}
	cur := s.SeatOf(s.turnHolder)
	if cur < 0 {
		return
	}
	next := 1 - cur

	s.clocks[cur].Stop()
	s.turnHolder = s.slots[next].ConnID
	if s.roomType.IsTimed() {
		s.clocks[next].Start()
	}
	s.turnCount++
	s.pendingClear = ""
	s.board.ResetFlips()
}

func (s *Session) endGame(res *Result) {
	s.state = StateOver
	s.stopClocks()
	s.pendingClear = ""
	s.board.ResetFlips()
	s.result = res
}

// Reset 重新开局：新棋局、新牌面、时钟复位
func (s *Session) Reset() {
	s.stopClocks()
	for _, c := range s.clocks {
		c.Reset(s.roomType.Duration())
	}
	for _, p := range s.slots {
		if p != nil {
			p.Color = ""
		}
	}

	s.position = s.cfg.engine.InitialPosition()
	s.board = tiles.New(s.cfg.tileOpts...)
	s.turnHolder = ""
	s.turnCount = 0
	s.pendingClear = ""
	s.result = nil

	if s.bothConnected() {
		s.state = StateReady
	} else {
		s.state = StateWaiting
	}
}

// CheckTimeout 计时房中有一方时间耗尽时结束对局，返回结果；否则返回 nil
func (s *Session) CheckTimeout() *Result {
	if !s.roomType.IsTimed() || s.state != StatePlaying {
		return nil
	}
	for seat, c := range s.clocks {
		if c.Remaining() <= 0 {
			res := s.newResult(ReasonTimeout, 1-seat)
			s.endGame(res)
			return res
		}
	}
	return nil
}

// resetOnConflict 棋局损坏时整局重开
func (s *Session) resetOnConflict(err *error) {
	if *err != nil && apperrors.IsKind(*err, apperrors.KindStateConflict) {
		s.Reset()
	}
}

// beginTurn 回合动作的公共校验，返回行动者座位
//
// autoStart 为真时 Ready 状态也可以行动，由调用方在校验通过后开局。
func (s *Session) beginTurn(connID string, autoStart bool) (int, *Result, error) {
	if res := s.CheckTimeout(); res != nil {
		return -1, res, apperrors.ErrTimeout
	}
	seat := s.SeatOf(connID)
	if seat < 0 {
		return -1, nil, apperrors.ErrNotInRoom
	}
	switch s.state {
	case StatePlaying:
		if s.turnHolder != connID {
			return -1, nil, apperrors.ErrNotYourTurn
		}
	case StateReady:
		if !autoStart {
			return -1, nil, apperrors.ErrGameNotStart
		}
	case StateWaiting:
		return -1, nil, apperrors.ErrGameNotStart
	default:
		return -1, nil, apperrors.ErrWrongState
	}
	return seat, nil, nil
}
