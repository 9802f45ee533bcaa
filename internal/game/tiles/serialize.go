package tiles

import (
	"encoding/json"
	"fmt"
	"strings"
)

// validBases 合法的基础标签
var validBases = map[string]bool{
	Wildcard: true,
	"bq":     true,
	"br":     true,
	"bb":     true,
	"bn":     true,
	"bp":     true,
	"wq":     true,
	"wr":     true,
	"wb":     true,
	"wn":     true,
	"wp":     true,
}

// String 序列化为逗号分隔的牌面，翻开的牌带有 "_" 后缀
func (b *Board) String() string {
	return strings.Join(b.deck[:], ",")
}

// Parse 从逗号分隔的牌面还原棋盘，翻开状态由 "_" 后缀恢复
func Parse(s string, opts ...Option) (*Board, error) {
	parts := strings.Split(s, ",")
	return fromDeck(parts, opts...)
}

type boardJSON struct {
	Deck    []string `json:"deck"`
	Flipped []int    `json:"flipped"`
}

// MarshalJSON 实现 json.Marshaler
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Deck: b.Deck(), Flipped: b.Flipped()})
}

// UnmarshalJSON 实现 json.Unmarshaler
//
// flipped 字段必须与牌面上的翻开标记一致。
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := fromDeck(raw.Deck)
	if err != nil {
		return err
	}
	if len(raw.Flipped) != len(parsed.flipped) {
		return fmt.Errorf("flipped set %v does not match deck markers %v", raw.Flipped, parsed.flipped)
	}
	for _, i := range raw.Flipped {
		if !parsed.IsFlipped(i) {
			return fmt.Errorf("index %d listed as flipped but has no marker", i)
		}
	}
	b.deck = parsed.deck
	b.flipped = parsed.flipped
	return nil
}

func fromDeck(deck []string, opts ...Option) (*Board, error) {
	if len(deck) != DeckSize {
		return nil, fmt.Errorf("deck has %d tiles, want %d", len(deck), DeckSize)
	}
	b := &Board{}
	for _, opt := range opts {
		opt(b)
	}
	for i, label := range deck {
		if label == "" {
			continue
		}
		if !validBases[Base(label)] {
			return nil, fmt.Errorf("invalid tile %q at %d", label, i)
		}
		b.deck[i] = label
		if strings.HasSuffix(label, flippedMarker) {
			b.flipped = append(b.flipped, i)
		}
	}
	if len(b.flipped) > 2 {
		return nil, fmt.Errorf("%d tiles flipped, at most 2 allowed", len(b.flipped))
	}
	return b, nil
}
