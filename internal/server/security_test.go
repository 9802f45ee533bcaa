package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		perSecond int
		perMinute int
		allowed   int // 被拒前放行的请求数
	}{
		{"per second limit", 5, 10, 5},
		{"per minute limit", 100, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rl := NewRateLimiter(tt.perSecond, tt.perMinute, time.Second)
			for i := range tt.allowed {
				assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
			}
			assert.False(t, rl.Allow("10.0.0.1"))
			assert.True(t, rl.IsBanned("10.0.0.1"))
			assert.False(t, rl.IsBanned("10.0.0.2"))
			assert.True(t, rl.Allow("10.0.0.2"), "other IPs are unaffected")
		})
	}
}

func TestRateLimiter_BanExpires(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 100, 200*time.Millisecond)
	require.True(t, rl.Allow("ip"))
	require.False(t, rl.Allow("ip"))

	time.Sleep(1100 * time.Millisecond)
	assert.False(t, rl.IsBanned("ip"))
	assert.True(t, rl.Allow("ip"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(20, 200, time.Second)
	var wg sync.WaitGroup
	var ok atomic.Int32
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), ok.Load())
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "https://any.example", true},
		{"wildcard", []string{"*"}, "https://any.example", true},
		{"listed", []string{"https://chess.example"}, "https://chess.example", true},
		{"case insensitive", []string{"https://Chess.Example"}, "https://chess.example", true},
		{"other scheme", []string{"https://chess.example"}, "http://chess.example", false},
		{"unlisted", []string{"https://chess.example"}, "https://evil.example", false},
		{"no origin header", []string{"https://chess.example"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewOriginChecker(tt.allowed).Check(req))
		})
	}
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ip        string
		whitelist []string
		blacklist []string
		want      bool
	}{
		{name: "default allow", ip: "192.168.1.1", want: true},
		{name: "blacklisted", ip: "192.168.1.2", blacklist: []string{"192.168.1.2"}, want: false},
		{name: "other blacklisted", ip: "192.168.1.3", blacklist: []string{"192.168.1.2"}, want: true},
		{name: "not whitelisted", ip: "192.168.1.4", whitelist: []string{"10.0.0.1"}, want: false},
		{name: "whitelisted", ip: "10.0.0.1", whitelist: []string{" 10.0.0.1 "}, want: true},
		{name: "blacklist wins", ip: "10.0.0.2", whitelist: []string{"10.0.0.2"}, blacklist: []string{"10.0.0.2"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter(tt.whitelist, tt.blacklist)
			assert.Equal(t, tt.want, f.IsAllowed(tt.ip))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"remote addr without port", "192.168.1.1", nil, "192.168.1.1"},
		{"forwarded for", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "203.0.113.1"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"}, "203.0.113.1"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
		{"forwarded before real ip", "10.0.0.1:1", map[string]string{
			"X-Forwarded-For": "203.0.113.3",
			"X-Real-IP":       "203.0.113.4",
		}, "203.0.113.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(4) // 超过 2 条开始警告
	var warnings []bool
	for range 4 {
		allowed, warning := ml.AllowMessage("c1")
		require.True(t, allowed)
		warnings = append(warnings, warning)
	}
	assert.Equal(t, []bool{false, false, true, true}, warnings)

	allowed, warning := ml.AllowMessage("c1")
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.GetWarningCount("c1"))
	assert.Zero(t, ml.GetWarningCount("unknown"))

	ml.ClearRateLimit("c1")
	allowed, warning = ml.AllowMessage("c1")
	assert.True(t, allowed)
	assert.False(t, warning)
	assert.Zero(t, ml.GetWarningCount("c1"))
}

func TestChatRateLimiter_Cooldown(t *testing.T) {
	t.Parallel()

	cl := NewChatRateLimiter(2, 10, 300*time.Millisecond)
	for range 2 {
		allowed, reason := cl.AllowChat("c1")
		require.True(t, allowed)
		require.Empty(t, reason)
	}

	allowed, reason := cl.AllowChat("c1")
	assert.False(t, allowed)
	assert.Contains(t, reason, "派大星")

	allowed, reason = cl.AllowChat("c1")
	assert.False(t, allowed)
	assert.Contains(t, reason, "章鱼哥")

	time.Sleep(350 * time.Millisecond)
	allowed, reason = cl.AllowChat("c1")
	assert.True(t, allowed)
	assert.Empty(t, reason)
}

func TestChatRateLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	cl := NewChatRateLimiter(10, 3, time.Second)
	for range 3 {
		allowed, _ := cl.AllowChat("c1")
		require.True(t, allowed)
	}
	allowed, reason := cl.AllowChat("c1")
	assert.False(t, allowed)
	assert.Contains(t, reason, "休息")

	cl.RemoveClient("c1")
	allowed, _ = cl.AllowChat("c1")
	assert.True(t, allowed)
}
