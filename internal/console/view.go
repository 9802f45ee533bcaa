package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/chess-memory/internal/game/tiles"
	"github.com/palemoky/chess-memory/internal/protocol"
)

const boardWidth = 8

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	whiteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#FFFFFF")).Bold(true)
	blackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#303030")).Bold(true)
	wildStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Bold(true)
	flippedStyle = lipgloss.NewStyle().Underline(true).Reverse(true)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// roomColumns 房间列表表头
func roomColumns() []table.Column {
	return []table.Column{
		{Title: "房间", Width: 8},
		{Title: "类型", Width: 8},
		{Title: "状态", Width: 9},
		{Title: "白方", Width: 14},
		{Title: "黑方", Width: 14},
		{Title: "回合", Width: 6},
		{Title: "剩余牌", Width: 6},
	}
}

// roomRows 房间列表行
func roomRows(rooms []protocol.RoomInfo) []table.Row {
	rows := make([]table.Row, len(rooms))
	for i, r := range rooms {
		rows[i] = table.Row{
			r.RoomID,
			r.RoomType,
			r.State,
			playerCell(r, "white"),
			playerCell(r, "black"),
			fmt.Sprintf("%d", r.TurnCount),
			fmt.Sprintf("%d", remainingTiles(r.Deck)),
		}
	}
	return rows
}

func playerCell(r protocol.RoomInfo, role string) string {
	for _, p := range r.Players {
		if p.Role != role {
			continue
		}
		if !p.Connected {
			return p.Name + " (离线)"
		}
		return p.Name
	}
	return "-"
}

func remainingTiles(deck []string) int {
	n := 0
	for _, label := range deck {
		if label != "" {
			n++
		}
	}
	return n
}

// renderTile 渲染一张牌：已消除为点，翻开的牌反色
func renderTile(label string) string {
	if label == "" {
		return mutedStyle.Render(" · ")
	}

	base := tiles.Base(label)
	var style lipgloss.Style
	switch {
	case tiles.IsWildcard(base):
		style = wildStyle
	case strings.HasPrefix(base, "w"):
		style = whiteStyle
	default:
		style = blackStyle
	}
	text := fmt.Sprintf("%-3s", base)
	if strings.HasSuffix(label, "_") {
		style = style.Inherit(flippedStyle)
	}
	return style.Render(text)
}

// renderDeck 以 8×8 网格渲染牌面
func renderDeck(deck []string) string {
	if len(deck) == 0 {
		return mutedStyle.Render("（无牌面）")
	}

	var sb strings.Builder
	for i, label := range deck {
		sb.WriteString(renderTile(label))
		if (i+1)%boardWidth == 0 {
			if i+1 < len(deck) {
				sb.WriteString("\n")
			}
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// renderPlayers 渲染座位信息
func renderPlayers(r protocol.RoomInfo) string {
	if len(r.Players) == 0 {
		return mutedStyle.Render("（空房间）")
	}

	lines := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		status := onlineStyle.Render("在线")
		if !p.Connected {
			status = errorStyle.Render("离线")
		}
		line := fmt.Sprintf("座位 %d  %-6s %-14s %s", p.Seat, p.Role, p.Name, status)
		if r.Duration > 0 {
			line += "  " + (time.Duration(p.Remaining) * time.Millisecond).Round(time.Second).String()
		}
		if p.ConnID == r.TurnHolder && r.TurnHolder != "" {
			line += "  ◀"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderDetail 房间详情：座位、局面与牌面
func renderDetail(r protocol.RoomInfo) string {
	header := titleStyle.Render(fmt.Sprintf("房间 %s", r.RoomID)) +
		mutedStyle.Render(fmt.Sprintf("  %s · %s · 第 %d 回合", r.RoomType, r.State, r.TurnCount))

	parts := []string{header, "", renderPlayers(r), ""}
	if r.Position != "" {
		parts = append(parts, mutedStyle.Render("FEN ")+r.Position)
	}
	if r.Pending != "" {
		parts = append(parts, mutedStyle.Render("待清除 ")+r.Pending)
	}
	parts = append(parts, "", boxStyle.Render(renderDeck(r.Deck)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
