package convert

import (
	"github.com/palemoky/chess-memory/internal/game/tiles"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

// HiddenTile 玩家视角下未翻开的牌
const HiddenTile = "?"

// MaskDeck 玩家视角的牌面：已消除为空，翻开的显示基础标签，其余显示 HiddenTile
func MaskDeck(deck []string, flipped []int) []string {
	masked := make([]string, len(deck))
	for i, label := range deck {
		if label != "" {
			masked[i] = HiddenTile
		}
	}
	for _, i := range flipped {
		if i >= 0 && i < len(deck) && deck[i] != "" {
			masked[i] = tiles.Base(deck[i])
		}
	}
	return masked
}

// MemoryBoard 玩家视角的记忆牌面
func MemoryBoard(deck []string, flipped []int) protocol.MemoryBoardPayload {
	return protocol.MemoryBoardPayload{Deck: MaskDeck(deck, flipped), Flipped: flipped}
}

// UpgradesToProto 升变改写的牌
func UpgradesToProto(ups []tiles.Upgrade) []protocol.TileUpgrade {
	out := make([]protocol.TileUpgrade, len(ups))
	for i, u := range ups {
		out[i] = protocol.TileUpgrade{Index: u.Index, Label: u.Label}
	}
	return out
}

// LeaderboardToProto 排行榜条目
func LeaderboardToProto(entries []storage.LeaderboardEntry) []protocol.LeaderboardEntry {
	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{
			Rank:       e.Rank,
			PlayerName: e.Stats.PlayerName,
			Score:      e.Stats.Score,
			Wins:       e.Stats.Wins,
			Losses:     e.Stats.Losses,
			Draws:      e.Stats.Draws,
			WinRate:    e.Stats.WinRate(),
		}
	}
	return out
}
