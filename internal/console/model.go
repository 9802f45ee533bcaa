package console

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
)

// DefaultRefresh 房间列表默认刷新间隔
const DefaultRefresh = 2 * time.Second

// --- Tea Messages ---

type connectedMsg struct{ client *Client }

type connErrorMsg struct{ err error }

type serverMsg struct{ msg *protocol.Message }

type refreshMsg struct{}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Open}, {k.Back, k.Refresh, k.Quit}}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "上移")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "下移")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "查看牌面")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "返回")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "刷新")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "退出")),
}

// Model 运维终端模型
type Model struct {
	serverURL string
	token     string // 运维口令
	refresh   time.Duration
	dial      func(string) (*Client, error)

	client   *Client
	rooms    []protocol.RoomInfo
	selected string // 正在查看的房间，空为列表视图
	latency  time.Duration
	updated  time.Time
	err      string

	table   table.Model
	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

// New 创建运维终端模型，token 须与服务端 security.operator_token 一致
func New(serverURL, token string, refresh time.Duration) *Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	t := table.New(
		table.WithColumns(roomColumns()),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Model{
		serverURL: serverURL,
		token:     token,
		refresh:   refresh,
		dial:      Dial,
		table:     t,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connect())
}

func (m *Model) connect() tea.Cmd {
	return func() tea.Msg {
		c, err := m.dial(m.serverURL)
		if err != nil {
			return connErrorMsg{err: err}
		}
		return connectedMsg{client: c}
	}
}

func (m *Model) listen() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		msg, err := c.Receive()
		if err != nil {
			return connErrorMsg{err: err}
		}
		return serverMsg{msg: msg}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

// poll 请求房间列表并测量延迟
func (m *Model) poll() {
	if m.client == nil {
		return
	}
	if err := m.client.Send(protocol.MsgRooms, protocol.RoomsRequestPayload{Token: m.token}); err != nil {
		m.err = err.Error()
		return
	}
	_ = m.client.Send(protocol.MsgPing, protocol.PingPayload{Timestamp: time.Now().UnixMilli()})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectedMsg:
		m.client = msg.client
		m.err = ""
		m.poll()
		return m, tea.Batch(m.listen(), m.tick())

	case connErrorMsg:
		m.err = fmt.Sprintf("连接失败: %v", msg.err)
		if m.client != nil {
			m.client.Close()
			m.client = nil
		}
		return m, nil

	case serverMsg:
		m.handleServerMessage(msg.msg)
		return m, m.listen()

	case refreshMsg:
		if m.client == nil {
			return m, nil
		}
		m.poll()
		return m, m.tick()

	case spinner.TickMsg:
		if m.client != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.client != nil {
			m.client.Close()
		}
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		m.poll()
		return m, nil
	case key.Matches(msg, keys.Back):
		m.selected = ""
		return m, nil
	case key.Matches(msg, keys.Open):
		if row := m.table.SelectedRow(); len(row) > 0 {
			m.selected = row[0]
		}
		return m, nil
	}

	if m.selected != "" {
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleServerMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgRooms:
		payload, err := codec.ParsePayload[protocol.RoomsPayload](msg)
		if err != nil {
			m.err = err.Error()
			return
		}
		m.rooms = payload.Rooms
		m.updated = time.Now()
		m.table.SetRows(roomRows(m.rooms))
		if m.selected != "" && m.findRoom(m.selected) == nil {
			m.selected = ""
		}

	case protocol.MsgPong:
		payload, err := codec.ParsePayload[protocol.PongPayload](msg)
		if err == nil && payload.ClientTimestamp > 0 {
			m.latency = time.Duration(time.Now().UnixMilli()-payload.ClientTimestamp) * time.Millisecond
		}

	case protocol.MsgError:
		payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err == nil {
			m.err = payload.Message
		}
	}
}

func (m *Model) findRoom(id string) *protocol.RoomInfo {
	for i := range m.rooms {
		if m.rooms[i].RoomID == id {
			return &m.rooms[i]
		}
	}
	return nil
}

func (m *Model) View() string {
	title := titleStyle.Render("♟️ 记忆象棋 · 运维终端")

	var body string
	switch {
	case m.client == nil && m.err == "":
		body = fmt.Sprintf("%s 正在连接 %s", m.spinner.View(), m.serverURL)
	case m.client == nil:
		body = mutedStyle.Render(m.serverURL)
	case m.selected != "":
		if r := m.findRoom(m.selected); r != nil {
			body = renderDetail(*r)
		}
	default:
		body = boxStyle.Render(m.table.View())
	}

	status := mutedStyle.Render(fmt.Sprintf("房间 %d · 延迟 %s · 更新于 %s",
		len(m.rooms), m.latency, m.updated.Format(time.TimeOnly)))

	parts := []string{title, "", body, "", status}
	if m.err != "" {
		parts = append(parts, errorStyle.Render(m.err))
	}
	parts = append(parts, m.help.View(keys))
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
