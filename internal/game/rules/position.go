package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// position 由 notnil/chess 解析的局面
//
// 棋盘读写交给库；库不提供的部分在这里补上：
// 不走子地改写 FEN 字段（让步、清除格子后的易位权）以及格子是否被攻击。
type position struct {
	pos    *chess.Position
	fields []string // 库输出的 FEN 六段
}

func newPosition(pos *chess.Position) *position {
	return &position{pos: pos, fields: strings.Fields(pos.String())}
}

func (p *position) turn() Color {
	return colorOf(p.pos.Turn())
}

// pieceAt 返回格子上的棋子
func (p *position) pieceAt(sq chess.Square) (Piece, bool) {
	pc := p.pos.Board().Piece(sq)
	if pc == chess.NoPiece {
		return Piece{}, false
	}
	return pieceOf(pc), true
}

// count 统计双方棋子数（含王）
func (p *position) count() (white, black int) {
	for _, pc := range p.pos.Board().SquareMap() {
		if pc.Color() == chess.White {
			white++
		} else {
			black++
		}
	}
	return white, black
}

// inCheck 判断 color 方的王是否被攻击，没有王时返回 false
func (p *position) inCheck(color Color) bool {
	for sq, pc := range p.pos.Board().SquareMap() {
		if pc.Type() == chess.King && colorOf(pc.Color()) == color {
			return p.attacked(sq, color.Opponent())
		}
	}
	return false
}

// clear 移除格子上的棋子，走子方不变，吃过路兵的机会作废
func (p *position) clear(sq chess.Square) string {
	m := p.pos.Board().SquareMap()
	delete(m, sq)
	return fmt.Sprintf("%s %s %s - %s %s",
		chess.NewBoard(m).String(), p.fields[1], sanitizeCastling(m, p.fields[2]), p.fields[4], p.fields[5])
}

// pass 走子方让出一步
func (p *position) pass() (string, error) {
	half, err := strconv.Atoi(p.fields[4])
	if err != nil {
		return "", err
	}
	full, err := strconv.Atoi(p.fields[5])
	if err != nil {
		return "", err
	}
	if p.turn() == Black {
		full++
	}
	return fmt.Sprintf("%s %s %s - %d %d", p.fields[0], p.turn().Opponent(), p.fields[2], half+1, full), nil
}

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attacked 判断 sq 是否被 by 方攻击
func (p *position) attacked(sq chess.Square, by Color) bool {
	board := p.pos.Board().SquareMap()
	file, rank := int(sq.File()), int(sq.Rank())
	at := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return board[chess.NewSquare(chess.File(f), chess.Rank(r))]
	}
	is := func(pc chess.Piece, types ...chess.PieceType) bool {
		if pc == chess.NoPiece || colorOf(pc.Color()) != by {
			return false
		}
		for _, t := range types {
			if pc.Type() == t {
				return true
			}
		}
		return false
	}

	// 兵从斜后方攻击
	pawnRank := rank - 1
	if by == Black {
		pawnRank = rank + 1
	}
	if is(at(file-1, pawnRank), chess.Pawn) || is(at(file+1, pawnRank), chess.Pawn) {
		return true
	}
	for _, s := range knightSteps {
		if is(at(file+s[0], rank+s[1]), chess.Knight) {
			return true
		}
	}
	for _, s := range kingSteps {
		if is(at(file+s[0], rank+s[1]), chess.King) {
			return true
		}
	}
	slide := func(dirs [4][2]int, types ...chess.PieceType) bool {
		for _, d := range dirs {
			for f, r := file+d[0], rank+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
				pc := at(f, r)
				if pc == chess.NoPiece {
					continue
				}
				if is(pc, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(rookDirs, chess.Rook, chess.Queen) || slide(bishopDirs, chess.Bishop, chess.Queen)
}

// sanitizeCastling 去掉王或车已不在原位的易位权
func sanitizeCastling(m map[chess.Square]chess.Piece, castling string) string {
	rights := []struct {
		flag       byte
		king, rook chess.Square
		kingPc     chess.Piece
		rookPc     chess.Piece
	}{
		{'K', chess.E1, chess.H1, chess.WhiteKing, chess.WhiteRook},
		{'Q', chess.E1, chess.A1, chess.WhiteKing, chess.WhiteRook},
		{'k', chess.E8, chess.H8, chess.BlackKing, chess.BlackRook},
		{'q', chess.E8, chess.A8, chess.BlackKing, chess.BlackRook},
	}
	var kept strings.Builder
	for _, r := range rights {
		if strings.IndexByte(castling, r.flag) < 0 {
			continue
		}
		if m[r.king] == r.kingPc && m[r.rook] == r.rookPc {
			kept.WriteByte(r.flag)
		}
	}
	if kept.Len() == 0 {
		return "-"
	}
	return kept.String()
}

// parseSquare 解析 "e4" 形式的坐标
func parseSquare(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), true
}

func pieceOf(pc chess.Piece) Piece {
	return Piece{Color: colorOf(pc.Color()), Kind: pc.Type().String()}
}
