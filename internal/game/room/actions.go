package room

import (
	"errors"
	"fmt"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/rules"
	"github.com/palemoky/chess-memory/internal/game/tiles"
)

// FlipEvent 翻牌结果
type FlipEvent struct {
	Index   int
	Label   string
	Ignored bool // 已翻开两张、重复翻开或该位置已消除
	Started bool // 由本次翻牌自动开局
	Result  *Result
}

// MatchEvent 配对结果
type MatchEvent struct {
	Matched   bool
	Match     tiles.Match
	Unflipped []int
	Position  string
	Ignored   bool // 未翻开两张
	Result    *Result
}

// ClearEvent 清除棋子结果
type ClearEvent struct {
	Square   string
	Piece    rules.Piece
	Position string
	Removed  []int
	Result   *Result
}

// MoveEvent 走子结果
type MoveEvent struct {
	Move     rules.MoveResult
	Removed  []int
	Upgrades []tiles.Upgrade
	Started  bool
	Result   *Result
}

// FlipTile 翻开一张牌，Ready 状态下自动开局
func (s *Session) FlipTile(connID string, index int) (ev FlipEvent, err error) {
	defer s.resetOnConflict(&err)

	ev.Index = index
	seat, res, err := s.beginTurn(connID, true)
	if err != nil {
		ev.Result = res
		return ev, err
	}
	if !tiles.InRange(index) {
		return ev, fmt.Errorf("index %d: %w", index, apperrors.ErrInvalidTile)
	}
	if s.pendingClear != "" {
		return ev, apperrors.ErrRewardPending
	}
	inCheck, err := s.cfg.engine.InCheck(s.position)
	if err != nil {
		return ev, err
	}
	if inCheck {
		return ev, apperrors.ErrInCheck
	}

	label, ok := s.board.Flip(index)
	if !ok {
		ev.Ignored = true
		return ev, nil
	}
	if s.state == StateReady {
		s.start(seat)
		ev.Started = true
	}
	ev.Label = label
	return ev, nil
}

// MatchTiles 对翻开的两张牌配对
//
// 配对成功获得清除奖励，回合继续；失败则牌翻回、放弃本步并交换回合。
func (s *Session) MatchTiles(connID string) (ev MatchEvent, err error) {
	defer s.resetOnConflict(&err)

	_, res, err := s.beginTurn(connID, false)
	if err != nil {
		ev.Result = res
		return ev, err
	}

	flipped := s.board.Flipped()
	if len(flipped) != 2 {
		ev.Ignored = true
		return ev, nil
	}

	if m, ok := s.board.MatchFlipped(); ok {
		s.pendingClear = m.Label
		ev.Matched = true
		ev.Match = m
		ev.Position = s.position
		return ev, nil
	}

	passed, err := s.cfg.engine.PassTurn(s.position)
	if err != nil {
		return ev, err
	}
	s.board.ResetFlips()
	s.position = passed
	s.switchTurn()

	ev.Unflipped = flipped
	ev.Position = s.position
	return ev, nil
}

// ClearSquare 用配对奖励清除一枚棋子，随后交换回合
//
// 棋子须与奖励标签一致；百搭奖励可清除对方任意非王棋子。
// 清除后若己方王被将军则拒绝，不做任何改变。
func (s *Session) ClearSquare(connID, square string) (ev ClearEvent, err error) {
	defer s.resetOnConflict(&err)

	ev.Square = square
	seat, res, err := s.beginTurn(connID, false)
	if err != nil {
		ev.Result = res
		return ev, err
	}
	if s.pendingClear == "" {
		return ev, apperrors.ErrNoPendingClear
	}

	piece, ok, err := s.cfg.engine.PieceAt(s.position, square)
	if err != nil {
		return ev, err
	}
	if !ok || piece.IsKing() {
		return ev, fmt.Errorf("square %s: %w", square, apperrors.ErrClearFailed)
	}
	if s.pendingClear == tiles.WildcardClass {
		if piece.Color == s.slots[seat].Color {
			return ev, fmt.Errorf("own piece on %s: %w", square, apperrors.ErrClearFailed)
		}
	} else if piece.Label() != s.pendingClear {
		return ev, fmt.Errorf("%s is not %s: %w", piece.Label(), s.pendingClear, apperrors.ErrClearFailed)
	}

	cleared, _, err := s.cfg.engine.ClearSquare(s.position, square)
	if err != nil {
		return ev, err
	}
	passed, err := s.cfg.engine.PassTurn(cleared)
	if err != nil {
		if errors.Is(err, apperrors.ErrInCheck) {
			return ev, fmt.Errorf("clearing %s exposes king: %w", square, apperrors.ErrClearFailed)
		}
		return ev, err
	}

	s.position = passed
	s.pendingClear = ""
	ev.Piece = piece
	ev.Removed = s.board.RemoveByLabel(piece.Label())
	ev.Result, err = s.finishOrSwitch()
	ev.Position = s.position
	return ev, err
}

// ApplyMove 走子，Ready 状态下自动开局
//
// 吃子时移除两张对应的牌，升变时改写两张兵牌。
func (s *Session) ApplyMove(connID string, m rules.Move) (ev MoveEvent, err error) {
	defer s.resetOnConflict(&err)

	seat, res, err := s.beginTurn(connID, true)
	if err != nil {
		ev.Result = res
		return ev, err
	}
	if err := m.Validate(); err != nil {
		return ev, err
	}
	moved, err := s.cfg.engine.Apply(s.position, m)
	if err != nil {
		return ev, err
	}

	if s.state == StateReady {
		s.start(seat)
		ev.Started = true
	}
	s.position = moved.Position
	s.pendingClear = ""
	s.board.ResetFlips()
	ev.Move = moved

	if moved.Captured != nil {
		ev.Removed = s.board.RemoveByLabel(moved.Captured.Label())
	}
	if moved.Promoted != "" {
		ev.Upgrades = s.board.UpgradeByLabel(string(moved.Color), moved.Promoted)
	}

	ev.Result, err = s.finishOrSwitch()
	return ev, err
}
