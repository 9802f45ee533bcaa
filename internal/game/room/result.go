package room

import (
	"github.com/palemoky/chess-memory/internal/game/rules"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

// Reason 结束原因
type Reason string

const (
	ReasonCheckmate Reason = "checkmate"
	ReasonStalemate Reason = "stalemate"
	ReasonMaterial  Reason = "material"
	ReasonTimeout   Reason = "timeout"
	ReasonForfeit   Reason = "forfeit"
)

// Draw 和棋时的 WinnerSeat
const Draw = -1

// Result 一局的结果
type Result struct {
	Reason     Reason
	WinnerSeat int // Draw 表示和棋
	Winner     string
	WinnerName string
	WinnerRole string
	Names      [Seats]string
}

// IsDraw 是否和棋
func (r *Result) IsDraw() bool {
	return r.WinnerSeat == Draw
}

// Outcome 某个座位的胜负，用于排行榜
func (r *Result) Outcome(seat int) storage.Outcome {
	switch {
	case r.IsDraw():
		return storage.OutcomeDraw
	case r.WinnerSeat == seat:
		return storage.OutcomeWin
	default:
		return storage.OutcomeLoss
	}
}

func (s *Session) newResult(reason Reason, winnerSeat int) *Result {
	res := &Result{Reason: reason, WinnerSeat: winnerSeat}
	for i, p := range s.slots {
		if p != nil {
			res.Names[i] = p.Identity.Name
		}
	}
	if winnerSeat != Draw {
		if p := s.slots[winnerSeat]; p != nil {
			res.Winner = p.ConnID
			res.WinnerName = p.Identity.Name
			res.WinnerRole = p.Role()
		}
	}
	return res
}

// detectWin 先看子力：只剩王的一方判负；子力未分胜负再问规则引擎是否将死或逼和
func (s *Session) detectWin() (*Result, error) {
	white, black, err := s.cfg.engine.Material(s.position)
	if err != nil {
		return nil, err
	}
	switch {
	case white <= 1 && black <= 1:
		return s.newResult(ReasonMaterial, Draw), nil
	case white <= 1:
		return s.newResult(ReasonMaterial, s.seatOfColor(rules.Black)), nil
	case black <= 1:
		return s.newResult(ReasonMaterial, s.seatOfColor(rules.White)), nil
	}

	st, err := s.cfg.engine.Status(s.position)
	if err != nil {
		return nil, err
	}
	switch st.Kind {
	case rules.Checkmate:
		return s.newResult(ReasonCheckmate, s.seatOfColor(st.Loser.Opponent())), nil
	case rules.Stalemate:
		return s.newResult(ReasonStalemate, Draw), nil
	}
	return nil, nil
}

// finishOrSwitch 分出胜负则结束，否则交换回合
func (s *Session) finishOrSwitch() (*Result, error) {
	res, err := s.detectWin()
	if err != nil {
		return nil, err
	}
	if res != nil {
		s.endGame(res)
		return res, nil
	}
	s.switchTurn()
	return nil, nil
}
