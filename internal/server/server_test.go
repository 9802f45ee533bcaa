package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/chess-memory/internal/config"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/protocol/codec"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

const readTimeout = 2 * time.Second

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Disabled = false
	cfg.Server.MaxConnections = 8
	cfg.Security.AllowedOrigins = []string{"*"}
	return cfg
}

func startServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		s.Shutdown()
		ts.Close()
	})
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.Encode(codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// await 读取直到收到指定类型的消息
func await[T any](t *testing.T, conn *websocket.Conn, msgType protocol.MessageType) *T {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		msg, err := codec.Decode(data)
		require.NoError(t, err)
		if msg.Type != msgType {
			continue
		}
		payload, err := codec.ParsePayload[T](msg)
		require.NoError(t, err)
		return payload
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	_, ts := startServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServer_CreateJoinAndDisconnect(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Security.OperatorToken = "ops-token"
	s, ts := startServer(t, cfg)

	host := dial(t, ts)
	send(t, host, protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		Identity: protocol.Identity{Name: "alice"},
		Time:     300,
	})
	created := await[protocol.RoomJoinedPayload](t, host, protocol.MsgRoomJoined)
	require.NotEmpty(t, created.RoomID)
	assert.Equal(t, 0, created.Seat)
	assert.Equal(t, 300, created.Duration)
	assert.NotEmpty(t, created.Token)

	guest := dial(t, ts)
	send(t, guest, protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		Identity: protocol.Identity{Name: "bob"},
		RoomID:   created.RoomID,
	})
	joined := await[protocol.RoomJoinedPayload](t, guest, protocol.MsgRoomJoined)
	assert.Equal(t, 1, joined.Seat)

	full := await[protocol.RoomFullPayload](t, host, protocol.MsgRoomFull)
	assert.Len(t, full.Players, 2)
	assert.Equal(t, 2, s.groupSize(created.RoomID))
	assert.Equal(t, 2, s.GetOnlineCount())

	// 玩家拿不到未遮挡的牌面
	send(t, host, protocol.MsgRooms, nil)
	denied := await[protocol.ErrorPayload](t, host, protocol.MsgError)
	assert.Equal(t, protocol.ErrCodeForbidden, denied.Code)

	send(t, host, protocol.MsgRooms, protocol.RoomsRequestPayload{Token: "ops-token"})
	rooms := await[protocol.RoomsPayload](t, host, protocol.MsgRooms)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, created.RoomID, rooms.Rooms[0].RoomID)

	require.NoError(t, guest.Close())
	gone := await[protocol.OpponentDisconnectedPayload](t, host, protocol.MsgOpponentDisconnected)
	assert.Equal(t, "bob", gone.PlayerName)
	assert.False(t, gone.Left)

	// 掉线保留座位，房间仍在
	_, ok := s.Registry().Get(created.RoomID)
	assert.True(t, ok)
}

func TestServer_Leaderboard(t *testing.T) {
	t.Parallel()
	s, ts := startServer(t, testConfig(t))
	require.NotNil(t, s.store)

	ctx := context.Background()
	require.NoError(t, s.store.RecordGameResult(ctx, "alice", storage.OutcomeWin))
	require.NoError(t, s.store.RecordGameResult(ctx, "bob", storage.OutcomeLoss))

	conn := dial(t, ts)
	send(t, conn, protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 5})
	board := await[protocol.LeaderboardPayload](t, conn, protocol.MsgLeaderboard)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].PlayerName)
	assert.Equal(t, 1, board.Entries[0].Rank)
}

func TestServer_WithoutRedis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"disabled", func(c *config.Config) { c.Redis.Disabled = true }},
		{"unreachable", func(c *config.Config) { c.Redis.Addr = "127.0.0.1:1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			tt.mutate(cfg)
			s, ts := startServer(t, cfg)
			assert.Nil(t, s.store)

			conn := dial(t, ts)
			send(t, conn, protocol.MsgGetLeaderboard, nil)
			board := await[protocol.LeaderboardPayload](t, conn, protocol.MsgLeaderboard)
			assert.Empty(t, board.Entries)
		})
	}
}

func TestServer_RejectsConnections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(*config.Config)
		setup     func(*Server)
		status    int
	}{
		{name: "maintenance", setup: func(s *Server) { s.EnterMaintenanceMode() }, status: http.StatusServiceUnavailable},
		{name: "blacklisted", configure: func(c *config.Config) { c.Security.IPBlacklist = []string{"127.0.0.1"} }, status: http.StatusForbidden},
		{name: "not whitelisted", configure: func(c *config.Config) { c.Security.IPWhitelist = []string{"10.0.0.1"} }, status: http.StatusForbidden},
		{name: "origin", configure: func(c *config.Config) { c.Security.AllowedOrigins = []string{"https://chess.example"} }, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			if tt.configure != nil {
				tt.configure(cfg)
			}
			s, ts := startServer(t, cfg)
			if tt.setup != nil {
				tt.setup(s)
			}

			header := http.Header{}
			header.Set("Origin", "https://evil.example")
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Zero(t, len(s.semaphore), "rejected connections release their slot")
		})
	}
}

func TestServer_MaxConnections(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Server.MaxConnections = 1
	_, ts := startServer(t, cfg)

	dial(t, ts)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Server.MaxConnections = 0
	_, err := NewServer(cfg)
	assert.Error(t, err)
}
