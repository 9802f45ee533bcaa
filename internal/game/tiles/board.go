// Package tiles 实现记忆翻牌（memory）棋盘：64 张牌，配对消除，百搭牌。
package tiles

import (
	"math/rand/v2"
	"strings"
)

const (
	// DeckSize 牌堆大小
	DeckSize = 64
	// Wildcard 百搭牌基础标签
	Wildcard = "x"
	// WildcardClass 两张百搭牌配对时上报的匹配类别
	WildcardClass = "wildcard"

	// flippedMarker 翻开标记，附加在标签末尾，不改变基础标签
	flippedMarker = "_"

	// shuffleSpan 参与洗牌的起始位置数：i ∈ [0, shuffleSpan) 与 [i+1, DeckSize) 中的位置交换。
	// 最后两个位置从不作为 i，保留原有洗牌行为。
	shuffleSpan = DeckSize - 2
)

// baseDeck 初始牌面：小写为第一张，大写为与之配对的第二张
// x 为百搭，w 白方，b 黑方；q 后，r 车，b 象，n 马，p 兵
var baseDeck = [DeckSize]string{
	"x", "bq", "br", "br", "bb", "bb", "bn", "bn", "bp", "bp", "bp", "bp", "bp", "bp", "bp", "bp",
	"x", "wq", "wr", "wr", "wb", "wb", "wn", "wn", "wp", "wp", "wp", "wp", "wp", "wp", "wp", "wp",
	"X", "BQ", "BR", "BR", "BB", "BB", "BN", "BN", "BP", "BP", "BP", "BP", "BP", "BP", "BP", "BP",
	"X", "WQ", "WR", "WR", "WB", "WB", "WN", "WN", "WP", "WP", "WP", "WP", "WP", "WP", "WP", "WP",
}

// Board 记忆翻牌棋盘
//
// deck 中空字符串表示该位置的牌已被消除；flipped 最多记录两张当前翻开的牌。
// Board 本身不做并发保护，由所属房间串行访问。
type Board struct {
	deck    [DeckSize]string
	flipped []int
	rng     *rand.Rand
}

// Option 棋盘选项
type Option func(*Board)

// WithRand 指定随机源（测试中用于复现洗牌与随机选择）
func WithRand(r *rand.Rand) Option {
	return func(b *Board) {
		b.rng = r
	}
}

// New 创建并洗好一副新牌
func New(opts ...Option) *Board {
	b := &Board{deck: baseDeck}
	for _, opt := range opts {
		opt(b)
	}
	b.shuffle()
	return b
}

// shuffle 洗牌
func (b *Board) shuffle() {
	for i := range shuffleSpan {
		j := i + 1 + b.intN(DeckSize-i-1)
		b.deck[i], b.deck[j] = b.deck[j], b.deck[i]
	}
}

func (b *Board) intN(n int) int {
	if b.rng != nil {
		return b.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Base 返回标签的基础标签（去掉翻开标记，统一小写）
func Base(label string) string {
	return strings.ToLower(strings.TrimSuffix(label, flippedMarker))
}

// IsWildcard 判断标签是否为百搭牌
func IsWildcard(label string) bool {
	return Base(label) == Wildcard
}

// Label 由颜色（"w"/"b"）和棋子（"q","r","b","n","p"）组成牌面标签
func Label(color, piece string) string {
	return strings.ToLower(color + piece)
}

// InRange 判断索引是否在牌堆范围内
func InRange(index int) bool {
	return index >= 0 && index < DeckSize
}

// Present 判断该位置的牌是否仍在场上
func (b *Board) Present(index int) bool {
	return InRange(index) && b.deck[index] != ""
}

// IsFlipped 判断该位置的牌是否已翻开
func (b *Board) IsFlipped(index int) bool {
	for _, i := range b.flipped {
		if i == index {
			return true
		}
	}
	return InRange(index) && strings.HasSuffix(b.deck[index], flippedMarker)
}

// Deck 返回牌堆副本（包含翻开标记）
func (b *Board) Deck() []string {
	deck := make([]string, DeckSize)
	copy(deck, b.deck[:])
	return deck
}

// Flipped 返回当前翻开的位置（升序）
func (b *Board) Flipped() []int {
	flipped := make([]int, len(b.flipped))
	copy(flipped, b.flipped)
	if len(flipped) == 2 && flipped[0] > flipped[1] {
		flipped[0], flipped[1] = flipped[1], flipped[0]
	}
	return flipped
}

// Remaining 返回场上剩余的牌数
func (b *Board) Remaining() int {
	n := 0
	for _, label := range b.deck {
		if label != "" {
			n++
		}
	}
	return n
}

// Clone 深拷贝棋盘（共享随机源）
func (b *Board) Clone() *Board {
	c := &Board{deck: b.deck, rng: b.rng}
	c.flipped = append([]int(nil), b.flipped...)
	return c
}
