package room

import (
	"github.com/google/uuid"

	"github.com/palemoky/chess-memory/internal/apperrors"
)

// ConnectResult 入座结果
type ConnectResult struct {
	Seat        int
	Token       string
	Reconnected bool   // 回到了自己原来的座位
	Replaced    bool   // 顶替了一个掉线玩家的座位
	PrevConnID  string // 座位上一个连接的 ID（重连或顶替时）
	Resumed     bool   // 两人到齐后回到进行中的对局
}

// LeaveResult 离开结果
type LeaveResult struct {
	Seat   int
	Player Player
}

// Connect 玩家入座
//
// 匹配顺序：同一连接（在线直接返回，离开过则回到原座位） → 令牌 → 0 号座位掉线且身份一致 → 1 号座位空 →
// 1 号座位掉线且身份一致 → 0 号座位空 → 顶替任一掉线座位。
func (s *Session) Connect(in PlayerInput) (ConnectResult, error) {
	if seat := s.SeatOf(in.ConnID); seat >= 0 && s.slots[seat].Connected {
		return ConnectResult{Seat: seat, Token: s.slots[seat].Token}, nil
	}

	res, err := s.seat(in)
	if err != nil {
		return ConnectResult{}, err
	}

	if s.bothConnected() {
		switch s.state {
		case StateWaiting:
			if s.turnCount == 0 {
				s.state = StateReady
			} else {
				s.state = StatePlaying
				res.Resumed = true
			}
		case StatePlaying:
			res.Resumed = res.Reconnected || res.Replaced
		}
	}
	res.Token = s.slots[res.Seat].Token
	return res, nil
}

func (s *Session) seat(in PlayerInput) (ConnectResult, error) {
	// 离开后用同一连接回来
	if seat := s.SeatOf(in.ConnID); seat >= 0 {
		return s.reconnect(seat, in.ConnID), nil
	}
	if in.Token != "" {
		for i, p := range s.slots {
			if p != nil && p.Token == in.Token {
				return s.reconnect(i, in.ConnID), nil
			}
		}
	}

	if p := s.slots[0]; p != nil && !p.Connected && p.Identity == in.Identity {
		return s.reconnect(0, in.ConnID), nil
	}
	if s.slots[1] == nil {
		s.occupy(1, in)
		return ConnectResult{Seat: 1}, nil
	}
	if p := s.slots[1]; !p.Connected && p.Identity == in.Identity {
		return s.reconnect(1, in.ConnID), nil
	}
	if s.slots[0] == nil {
		s.occupy(0, in)
		return ConnectResult{Seat: 0}, nil
	}

	for i, p := range s.slots {
		if !p.Connected {
			prev := p.ConnID
			p.Identity = in.Identity
			p.Token = uuid.NewString()
			s.rebind(i, in.ConnID)
			return ConnectResult{Seat: i, Replaced: true, PrevConnID: prev}, nil
		}
	}
	return ConnectResult{}, apperrors.ErrRoomFull
}

func (s *Session) reconnect(seat int, connID string) ConnectResult {
	prev := s.slots[seat].ConnID
	s.rebind(seat, connID)
	return ConnectResult{Seat: seat, Reconnected: true, PrevConnID: prev}
}

// rebind 座位换成新连接，回合归属随之转移
func (s *Session) rebind(seat int, connID string) {
	p := s.slots[seat]
	if s.turnHolder != "" && s.turnHolder == p.ConnID {
		s.turnHolder = connID
	}
	p.ConnID = connID
	p.Connected = true
}

// Disconnect 标记玩家掉线，不改变房间状态，计时器照常走
func (s *Session) Disconnect(connID string) (int, error) {
	seat := s.SeatOf(connID)
	if seat < 0 {
		return -1, apperrors.ErrNotInRoom
	}
	s.slots[seat].Connected = false
	return seat, nil
}

// Leave 玩家主动离开，座位保留身份、令牌和剩余时间，宽限期内可凭身份或令牌回来
//
// 对局不因离开而结束；两人未开局时房间退回等待状态。
func (s *Session) Leave(connID string) (LeaveResult, error) {
	seat, err := s.Disconnect(connID)
	if err != nil {
		return LeaveResult{}, err
	}
	if s.state == StateReady {
		s.state = StateWaiting
	}
	return LeaveResult{Seat: seat, Player: *s.slots[seat]}, nil
}

// Resign 认输，对方获胜
func (s *Session) Resign(connID string) (*Result, error) {
	seat := s.SeatOf(connID)
	if seat < 0 {
		return nil, apperrors.ErrNotInRoom
	}
	if s.state != StatePlaying {
		return nil, apperrors.ErrWrongState
	}
	res := s.newResult(ReasonForfeit, 1-seat)
	s.endGame(res)
	return res, nil
}
