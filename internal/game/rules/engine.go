// Package rules 封装国际象棋规则引擎
//
// 房间只把棋局当作不透明的 FEN 字符串保存与转发，所有解析都在这里完成。
package rules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/palemoky/chess-memory/internal/apperrors"
)

// Color 棋子颜色，与牌面标签的颜色前缀一致
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

// Opponent 返回对方颜色
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Name 返回 "white" / "black"
func (c Color) Name() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Piece 棋子
type Piece struct {
	Color Color  `json:"color"`
	Kind  string `json:"kind"` // k q r b n p
}

// Label 棋子对应的牌面基础标签，如 "wq"
func (p Piece) Label() string {
	return string(p.Color) + p.Kind
}

// IsKing 是否为王
func (p Piece) IsKing() bool {
	return p.Kind == "k"
}

// Move 走法
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI 返回 "e2e4" / "e7e8q" 形式
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

// Validate 检查走法格式
func (m Move) Validate() error {
	if _, ok := parseSquare(m.From); !ok {
		return fmt.Errorf("from %q: %w", m.From, apperrors.ErrInvalidMove)
	}
	if _, ok := parseSquare(m.To); !ok {
		return fmt.Errorf("to %q: %w", m.To, apperrors.ErrInvalidMove)
	}
	if m.From == m.To {
		return fmt.Errorf("from equals to: %w", apperrors.ErrInvalidMove)
	}
	switch m.Promotion {
	case "", "q", "r", "b", "n":
	default:
		return fmt.Errorf("promotion %q: %w", m.Promotion, apperrors.ErrInvalidMove)
	}
	return nil
}

// MoveResult 走子结果
type MoveResult struct {
	Position string `json:"position"`
	Captured *Piece `json:"captured,omitempty"`
	Promoted string `json:"promoted,omitempty"` // 升变后的棋子
	Color    Color  `json:"color"`              // 走子方
	Notation string `json:"notation"`
}

// TerminalKind 终局类型
type TerminalKind int

const (
	None TerminalKind = iota
	Checkmate
	Stalemate
)

func (k TerminalKind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "none"
	}
}

// TerminalStatus 终局状态，Loser 仅在将死时有效
type TerminalStatus struct {
	Kind  TerminalKind
	Loser Color
}

// Engine 规则引擎
//
// 无法解析的棋局返回 apperrors.ErrCorruptState。
type Engine interface {
	InitialPosition() string
	Apply(position string, m Move) (MoveResult, error)
	Status(position string) (TerminalStatus, error)
	Material(position string) (white, black int, err error)
	SideToMove(position string) (Color, error)
	InCheck(position string) (bool, error)
	PieceAt(position, square string) (Piece, bool, error)
	ClearSquare(position, square string) (string, Piece, error)
	PassTurn(position string) (string, error)
}

// ChessEngine 基于 notnil/chess 的规则引擎
type ChessEngine struct{}

// NewChessEngine 创建规则引擎
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

var _ Engine = (*ChessEngine)(nil)

// InitialPosition 标准开局
func (e *ChessEngine) InitialPosition() string {
	return chess.NewGame().FEN()
}

// Apply 校验并执行走法
func (e *ChessEngine) Apply(fen string, m Move) (MoveResult, error) {
	if err := m.Validate(); err != nil {
		return MoveResult{}, err
	}
	game, err := load(fen)
	if err != nil {
		return MoveResult{}, err
	}

	pos := game.Position()
	uci := strings.ToLower(m.UCI())
	notation := chess.UCINotation{}
	var chosen *chess.Move
	for _, mv := range game.ValidMoves() {
		if notation.Encode(pos, mv) == uci {
			chosen = mv
			break
		}
	}
	if chosen == nil {
		return MoveResult{}, fmt.Errorf("move %s: %w", uci, apperrors.ErrIllegalMove)
	}

	result := MoveResult{Color: colorOf(pos.Turn()), Notation: uci}
	switch {
	case chosen.HasTag(chess.EnPassant):
		result.Captured = &Piece{Color: result.Color.Opponent(), Kind: "p"}
	case chosen.HasTag(chess.Capture):
		captured := pieceOf(pos.Board().Piece(chosen.S2()))
		result.Captured = &captured
	}
	if chosen.Promo() != chess.NoPieceType {
		result.Promoted = chosen.Promo().String()
	}

	if err := game.Move(chosen); err != nil {
		return MoveResult{}, fmt.Errorf("move %s: %w", uci, apperrors.ErrIllegalMove)
	}
	result.Position = game.FEN()
	return result, nil
}

// Status 判断轮到走子的一方是否被将死或逼和
func (e *ChessEngine) Status(fen string) (TerminalStatus, error) {
	game, err := load(fen)
	if err != nil {
		return TerminalStatus{}, err
	}
	pos := game.Position()
	switch pos.Status() {
	case chess.Checkmate:
		return TerminalStatus{Kind: Checkmate, Loser: colorOf(pos.Turn())}, nil
	case chess.Stalemate:
		return TerminalStatus{Kind: Stalemate}, nil
	}
	return TerminalStatus{Kind: None}, nil
}

// Material 双方棋子数（含王）
func (e *ChessEngine) Material(fen string) (white, black int, err error) {
	p, err := parse(fen)
	if err != nil {
		return 0, 0, err
	}
	white, black = p.count()
	return white, black, nil
}

// SideToMove 轮到走子的一方
func (e *ChessEngine) SideToMove(fen string) (Color, error) {
	p, err := parse(fen)
	if err != nil {
		return "", err
	}
	return p.turn(), nil
}

// PieceAt 返回格子上的棋子
func (e *ChessEngine) PieceAt(fen, square string) (Piece, bool, error) {
	sq, ok := parseSquare(square)
	if !ok {
		return Piece{}, false, fmt.Errorf("square %q: %w", square, apperrors.ErrInvalidMove)
	}
	p, err := parse(fen)
	if err != nil {
		return Piece{}, false, err
	}
	piece, ok := p.pieceAt(sq)
	return piece, ok, nil
}

// ClearSquare 移除格子上的棋子（王不可移除），走子方不变
func (e *ChessEngine) ClearSquare(fen, square string) (string, Piece, error) {
	sq, ok := parseSquare(square)
	if !ok {
		return "", Piece{}, fmt.Errorf("square %q: %w", square, apperrors.ErrInvalidMove)
	}
	p, err := parse(fen)
	if err != nil {
		return "", Piece{}, err
	}
	piece, ok := p.pieceAt(sq)
	if !ok || piece.IsKing() {
		return "", Piece{}, fmt.Errorf("square %s: %w", square, apperrors.ErrClearFailed)
	}

	out := p.clear(sq)
	if _, err := load(out); err != nil {
		return "", Piece{}, err
	}
	return out, piece, nil
}

// PassTurn 走子方放弃本步，被将军时拒绝
func (e *ChessEngine) PassTurn(fen string) (string, error) {
	p, err := parse(fen)
	if err != nil {
		return "", err
	}
	if p.inCheck(p.turn()) {
		return "", apperrors.ErrInCheck
	}

	out, err := p.pass()
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	if _, err := load(out); err != nil {
		return "", err
	}
	return out, nil
}

// InCheck 走子方是否被将军
func (e *ChessEngine) InCheck(fen string) (bool, error) {
	p, err := parse(fen)
	if err != nil {
		return false, err
	}
	return p.inCheck(p.turn()), nil
}

func load(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})), nil
}

func parse(fen string) (*position, error) {
	game, err := load(fen)
	if err != nil {
		return nil, err
	}
	return newPosition(game.Position()), nil
}

func colorOf(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}
