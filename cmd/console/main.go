package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/chess-memory/internal/console"
)

func main() {
	serverAddr := flag.String("server", "localhost:1780", "服务器地址")
	token := flag.String("token", "", "运维口令（security.operator_token）")
	refresh := flag.Duration("refresh", console.DefaultRefresh, "房间列表刷新间隔")
	flag.Parse()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)

	p := tea.NewProgram(console.New(serverURL, *token, *refresh), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动运维终端时出错: %v", err)
	}
}
