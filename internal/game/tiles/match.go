package tiles

import "strings"

// Match 配对结果
type Match struct {
	Label   string `json:"label"`   // 匹配的基础标签，两张百搭时为 WildcardClass
	Indices []int  `json:"indices"` // 被消除的位置
}

// IsWildcard 是否为两张百搭牌的配对
func (m Match) IsWildcard() bool {
	return m.Label == WildcardClass
}

// Upgrade 升变后被改写的牌
type Upgrade struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Flip 翻开一张牌，返回其基础标签
//
// 已翻开两张、该位置已翻开、或该位置已消除时不做任何改变并返回 false。
func (b *Board) Flip(index int) (string, bool) {
	if len(b.flipped) >= 2 || !b.Present(index) || b.IsFlipped(index) {
		return "", false
	}
	b.deck[index] += flippedMarker
	b.flipped = append(b.flipped, index)
	return Base(b.deck[index]), true
}

// MatchFlipped 对已翻开的两张牌进行配对
//
// 必须恰好翻开两张，否则不做任何改变。一张百搭时会额外消除一张与另一张同标签的牌；
// 若场上已没有这样的牌，返回失败且保留翻开状态，由调用方决定后续处理。
func (b *Board) MatchFlipped() (Match, bool) {
	if len(b.flipped) != 2 {
		return Match{}, false
	}
	first, second := b.flipped[0], b.flipped[1]
	a, c := Base(b.deck[first]), Base(b.deck[second])

	switch {
	case a == Wildcard && c == Wildcard:
		b.clear(first, second)
		b.flipped = nil
		return Match{Label: WildcardClass, Indices: []int{first, second}}, true

	case a == Wildcard || c == Wildcard:
		label := a
		if a == Wildcard {
			label = c
		}
		candidates := b.present(label, first, second)
		if len(candidates) == 0 {
			return Match{}, false
		}
		third := candidates[b.intN(len(candidates))]
		b.clear(first, second, third)
		b.flipped = nil
		return Match{Label: label, Indices: []int{first, second, third}}, true

	case a == c:
		b.clear(first, second)
		b.flipped = nil
		return Match{Label: a, Indices: []int{first, second}}, true

	default:
		b.ResetFlips()
		return Match{}, false
	}
}

// ResetFlips 清空翻开状态，去掉翻开标记，不改变场上的牌
func (b *Board) ResetFlips() {
	for _, i := range b.flipped {
		b.deck[i] = strings.TrimSuffix(b.deck[i], flippedMarker)
	}
	b.flipped = nil
}

// RemoveByLabel 随机消除场上两张指定标签的牌（棋盘上对应棋子被吃掉时调用）
//
// 场上不足两张时返回 nil。
func (b *Board) RemoveByLabel(label string) []int {
	picked := b.pickTwo(b.present(Base(label)))
	if picked == nil {
		return nil
	}
	b.clear(picked...)
	b.dropFlips(picked...)
	return picked
}

// UpgradeByLabel 将场上随机两张该颜色的兵改写为新棋子（兵升变时调用）
//
// 改写保留每张牌的大小写与翻开标记。场上不足两张时返回 nil。
func (b *Board) UpgradeByLabel(color, piece string) []Upgrade {
	picked := b.pickTwo(b.present(Label(color, "p")))
	if picked == nil {
		return nil
	}
	upgrades := make([]Upgrade, 0, len(picked))
	for _, i := range picked {
		label := Label(color, piece)
		old := b.deck[i]
		if strings.ToUpper(old) == old {
			label = strings.ToUpper(label)
		}
		if strings.HasSuffix(old, flippedMarker) {
			label += flippedMarker
		}
		b.deck[i] = label
		upgrades = append(upgrades, Upgrade{Index: i, Label: Base(label)})
	}
	return upgrades
}

// present 返回场上基础标签为 label 的位置，排除 exclude
func (b *Board) present(label string, exclude ...int) []int {
	var out []int
next:
	for i, tile := range b.deck {
		if tile == "" || Base(tile) != label {
			continue
		}
		for _, e := range exclude {
			if e == i {
				continue next
			}
		}
		out = append(out, i)
	}
	return out
}

// pickTwo 从候选中均匀随机选出两个不同位置
func (b *Board) pickTwo(candidates []int) []int {
	n := len(candidates)
	if n < 2 {
		return nil
	}
	i := b.intN(n)
	j := b.intN(n - 1)
	if j >= i {
		j++
	}
	return []int{candidates[i], candidates[j]}
}

func (b *Board) clear(indices ...int) {
	for _, i := range indices {
		b.deck[i] = ""
	}
}

func (b *Board) dropFlips(indices ...int) {
	kept := b.flipped[:0]
	for _, f := range b.flipped {
		removed := false
		for _, i := range indices {
			if f == i {
				removed = true
				break
			}
		}
		if !removed {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		b.flipped = nil
		return
	}
	b.flipped = kept
}
