package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/chess-memory/internal/apperrors"
	"github.com/palemoky/chess-memory/internal/game/clock"
	"github.com/palemoky/chess-memory/internal/game/rules"
	"github.com/palemoky/chess-memory/internal/game/tiles"
)

// Seats 每个房间的座位数
const Seats = 2

// RoomType 房间类型：休闲房不计时，计时房每方有固定用时
type RoomType struct {
	timed    bool
	duration time.Duration
}

// Casual 休闲房
func Casual() RoomType {
	return RoomType{}
}

// Timed 计时房，d 为每方用时，必须大于零
func Timed(d time.Duration) RoomType {
	return RoomType{timed: true, duration: d}
}

// IsTimed 是否为计时房
func (t RoomType) IsTimed() bool {
	return t.timed
}

// Duration 每方用时，休闲房为 0
func (t RoomType) Duration() time.Duration {
	if !t.timed {
		return 0
	}
	return t.duration
}

func (t RoomType) String() string {
	if t.timed {
		return "timed"
	}
	return "casual"
}

func (t RoomType) validate() error {
	if t.timed && t.duration <= 0 {
		return fmt.Errorf("timed room with duration %s: %w", t.duration, apperrors.ErrInvalidRoomType)
	}
	return nil
}

// Identity 玩家的稳定身份，断线重连时用于识别同一玩家
type Identity struct {
	Name              string
	Avatar            string
	AvatarOrientation string
	AvatarColor       string
}

// PlayerInput 入座请求
type PlayerInput struct {
	ConnID   string
	Identity Identity
	Token    string // 首次入座时下发的令牌，重连时携带
}

// Player 座位上的玩家
type Player struct {
	ConnID    string
	Identity  Identity
	Token     string
	Color     rules.Color // 开局前为空
	Connected bool
}

// Role 返回 "white" / "black"，开局前为空
func (p *Player) Role() string {
	if p.Color == "" {
		return ""
	}
	return p.Color.Name()
}

type sessionConfig struct {
	engine   rules.Engine
	tick     time.Duration
	tileOpts []tiles.Option
	now      func() time.Time
}

// SessionOption 会话选项
type SessionOption func(*sessionConfig)

// WithEngine 指定规则引擎
func WithEngine(e rules.Engine) SessionOption {
	return func(c *sessionConfig) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithClockTick 指定计时器步长
func WithClockTick(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithTileOptions 指定记忆棋盘选项（每次重开都会使用）
func WithTileOptions(opts ...tiles.Option) SessionOption {
	return func(c *sessionConfig) {
		c.tileOpts = opts
	}
}

// Session 一局棋 + 记忆翻牌的两人会话
//
// Session 不做并发保护，只能通过 Registry 串行访问。
// 只有 clocks 的剩余时间可以在锁外读取。
type Session struct {
	id       string
	roomType RoomType
	cfg      sessionConfig

	slots  [Seats]*Player
	clocks [Seats]*clock.Clock

	state        State
	turnHolder   string
	turnCount    uint
	position     string
	board        *tiles.Board
	pendingClear string
	result       *Result
	createdAt    time.Time
}

// NewSession 创建会话，host 占据 0 号座位
func NewSession(id string, rt RoomType, host PlayerInput, opts ...SessionOption) (*Session, error) {
	if err := rt.validate(); err != nil {
		return nil, err
	}

	cfg := sessionConfig{tick: clock.DefaultTick, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = rules.NewChessEngine()
	}

	s := &Session{
		id:        id,
		roomType:  rt,
		cfg:       cfg,
		state:     StateWaiting,
		position:  cfg.engine.InitialPosition(),
		board:     tiles.New(cfg.tileOpts...),
		createdAt: cfg.now(),
	}
	for i := range s.clocks {
		s.clocks[i] = clock.New(rt.Duration(), clock.WithTick(cfg.tick))
	}
	s.occupy(0, host)
	return s, nil
}

// ID 房间号
func (s *Session) ID() string { return s.id }

// Type 房间类型
func (s *Session) Type() RoomType { return s.roomType }

// State 当前状态
func (s *Session) State() State { return s.state }

// TurnHolder 当前回合玩家的连接 ID
func (s *Session) TurnHolder() string { return s.turnHolder }

// TurnCount 已完成的回合数
func (s *Session) TurnCount() uint { return s.turnCount }

// Position 当前棋局（FEN）
func (s *Session) Position() string { return s.position }

// PendingClear 本回合配对获得、尚未使用的清除奖励
func (s *Session) PendingClear() string { return s.pendingClear }

// Result 最近一局的结果，未结束时为 nil
func (s *Session) Result() *Result { return s.result }

// Board 记忆棋盘的副本
func (s *Session) Board() *tiles.Board { return s.board.Clone() }

// Player 返回座位上的玩家副本
func (s *Session) Player(seat int) (Player, bool) {
	if seat < 0 || seat >= Seats || s.slots[seat] == nil {
		return Player{}, false
	}
	return *s.slots[seat], true
}

// SeatOf 返回连接所在座位，不在房间返回 -1
func (s *Session) SeatOf(connID string) int {
	if connID == "" {
		return -1
	}
	for i, p := range s.slots {
		if p != nil && p.ConnID == connID {
			return i
		}
	}
	return -1
}

// Occupied 已占用的座位数
func (s *Session) Occupied() int {
	n := 0
	for _, p := range s.slots {
		if p != nil {
			n++
		}
	}
	return n
}

// AnyConnected 是否还有在线玩家
func (s *Session) AnyConnected() bool {
	for _, p := range s.slots {
		if p != nil && p.Connected {
			return true
		}
	}
	return false
}

// ConnIDs 在线玩家的连接 ID
func (s *Session) ConnIDs() []string {
	ids := make([]string, 0, Seats)
	for _, p := range s.slots {
		if p != nil && p.Connected {
			ids = append(ids, p.ConnID)
		}
	}
	return ids
}

func (s *Session) bothConnected() bool {
	for _, p := range s.slots {
		if p == nil || !p.Connected {
			return false
		}
	}
	return true
}

func (s *Session) occupy(seat int, in PlayerInput) {
	s.slots[seat] = &Player{
		ConnID:    in.ConnID,
		Identity:  in.Identity,
		Token:     uuid.NewString(),
		Connected: true,
	}
	if s.turnCount == 0 {
		s.clocks[seat].Reset(s.roomType.Duration())
	}
}

func (s *Session) seatOfColor(c rules.Color) int {
	for i, p := range s.slots {
		if p != nil && p.Color == c {
			return i
		}
	}
	return -1
}

func (s *Session) stopClocks() {
	for _, c := range s.clocks {
		c.Stop()
	}
}

func (s *Session) setExpiry(fn func()) {
	for _, c := range s.clocks {
		c.SetExpiry(fn)
	}
}
