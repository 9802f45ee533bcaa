package console

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
)

func sampleRooms() []protocol.RoomInfo {
	deck := make([]string, 64)
	deck[0] = "wq_"
	deck[1] = "BP"
	deck[2] = "x"
	return []protocol.RoomInfo{
		{
			RoomID:     "123456",
			RoomType:   "timed",
			Duration:   300,
			State:      "playing",
			TurnHolder: "conn-a",
			TurnCount:  3,
			Position:   "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			Players: []protocol.PlayerInfo{
				{Seat: 0, ConnID: "conn-a", Role: "white", Connected: true, Remaining: 290_000, Identity: protocol.Identity{Name: "alice"}},
				{Seat: 1, ConnID: "conn-b", Role: "black", Connected: false, Identity: protocol.Identity{Name: "bob"}},
			},
			Deck: deck,
		},
		{RoomID: "654321", RoomType: "casual", State: "waiting"},
	}
}

func roomsMessage(t *testing.T, rooms []protocol.RoomInfo) serverMsg {
	t.Helper()
	return serverMsg{msg: codec.MustNewMessage(protocol.MsgRooms, protocol.RoomsPayload{Rooms: rooms})}
}

func TestRoomRows(t *testing.T) {
	t.Parallel()

	rows := roomRows(sampleRooms())
	require.Len(t, rows, 2)
	assert.Equal(t, "123456", rows[0][0])
	assert.Equal(t, "alice", rows[0][3])
	assert.Equal(t, "bob (离线)", rows[0][4])
	assert.Equal(t, "3", rows[0][6])
	assert.Equal(t, "-", rows[1][3])
	assert.Equal(t, "0", rows[1][6])
}

func TestRenderDeck(t *testing.T) {
	t.Parallel()

	out := renderDeck(sampleRooms()[0].Deck)
	assert.Equal(t, 8, strings.Count(out, "\n")+1, "eight rows")
	assert.Contains(t, out, "wq")
	assert.Contains(t, out, "bp")
	assert.Contains(t, out, "x")
	assert.Contains(t, out, "·")
	assert.Contains(t, renderDeck(nil), "无牌面")
}

func TestRenderDetail(t *testing.T) {
	t.Parallel()

	out := renderDetail(sampleRooms()[0])
	assert.Contains(t, out, "房间 123456")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "4m50s")
	assert.Contains(t, out, "离线")
	assert.Contains(t, out, "◀")
	assert.Contains(t, out, "FEN")
}

func TestModel_RoomsAndNavigation(t *testing.T) {
	t.Parallel()

	m := New("ws://test/ws", "", 0)
	assert.Equal(t, DefaultRefresh, m.refresh)

	m.Update(roomsMessage(t, sampleRooms()))
	require.Len(t, m.rooms, 2)
	assert.Len(t, m.table.Rows(), 2)
	assert.False(t, m.updated.IsZero())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "123456", m.selected)
	m.client = &Client{}
	assert.Contains(t, m.View(), "房间 123456")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.selected)

	// 房间消失后退出详情
	m.selected = "123456"
	m.Update(roomsMessage(t, sampleRooms()[1:]))
	assert.Empty(t, m.selected)
}

func TestModel_ServerErrorsAndPong(t *testing.T) {
	t.Parallel()

	m := New("ws://test/ws", "", time.Second)
	m.Update(serverMsg{msg: codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁")})
	assert.Equal(t, "消息发送过于频繁", m.err)

	sent := time.Now().Add(-50 * time.Millisecond).UnixMilli()
	m.Update(serverMsg{msg: codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{ClientTimestamp: sent})})
	assert.GreaterOrEqual(t, m.latency, 50*time.Millisecond)
}

func TestModel_ConnectFailure(t *testing.T) {
	t.Parallel()

	m := New("ws://test/ws", "", time.Second)
	m.dial = func(string) (*Client, error) { return nil, errors.New("refused") }

	msg := m.connect()()
	m.Update(msg)
	assert.Nil(t, m.client)
	assert.Contains(t, m.err, "refused")
	assert.Contains(t, m.View(), "refused")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// roomsServer 口令正确的 rooms 请求回复固定房间列表，否则回复错误
func roomsServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := codec.Decode(data)
			if err != nil || msg.Type != protocol.MsgRooms {
				continue
			}
			reply, _ := codec.Encode(codec.NewErrorMessage(protocol.ErrCodeForbidden))
			if req, err := codec.ParsePayload[protocol.RoomsRequestPayload](msg); err == nil && req.Token == token {
				reply, _ = codec.Encode(codec.MustNewMessage(protocol.MsgRooms, protocol.RoomsPayload{Rooms: sampleRooms()}))
			}
			_ = conn.WriteMessage(websocket.TextMessage, reply)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()
	ts := roomsServer(t, "secret")

	c, err := Dial("ws" + strings.TrimPrefix(ts.URL, "http"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send(protocol.MsgRooms, protocol.RoomsRequestPayload{Token: "secret"}))
	msg, err := c.Receive()
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgRooms, msg.Type)

	payload, err := codec.ParsePayload[protocol.RoomsPayload](msg)
	require.NoError(t, err)
	assert.Len(t, payload.Rooms, 2)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Send(protocol.MsgRooms, nil), ErrClosed)
	_, err = c.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModel_PollSendsToken(t *testing.T) {
	t.Parallel()
	ts := roomsServer(t, "secret")
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	tests := []struct {
		name    string
		token   string
		rooms   int
		wantErr string
	}{
		{name: "matching token", token: "secret", rooms: 2},
		{name: "wrong token", token: "guess", wantErr: protocol.ErrorMessages[protocol.ErrCodeForbidden]},
		{name: "no token", wantErr: protocol.ErrorMessages[protocol.ErrCodeForbidden]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := New(url, tt.token, time.Second)
			c, err := Dial(url)
			require.NoError(t, err)
			defer c.Close()
			m.client = c

			m.poll()
			m.Update(m.listen()())
			assert.Len(t, m.rooms, tt.rooms)
			assert.Equal(t, tt.wantErr, m.err)
		})
	}
}

func TestDial_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := Dial("ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
