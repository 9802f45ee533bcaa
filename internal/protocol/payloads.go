package protocol

// --- 客户端请求 Payloads ---

// Identity 玩家身份，断线后凭相同身份或令牌回到原座位
type Identity struct {
	Name              string `json:"name"`
	Avatar            string `json:"avatar"`
	AvatarOrientation string `json:"avatar_orientation"`
	AvatarColor       string `json:"avatar_color"`
}

// CreateRoomPayload 创建房间请求，Time 为每方用时（秒），0 或缺省为休闲房
type CreateRoomPayload struct {
	Identity
	Time int `json:"time,omitempty"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	Identity
	RoomID string `json:"room_id"`
	Token  string `json:"token,omitempty"`
}

// ReconnectPayload 凭令牌回到房间
type ReconnectPayload struct {
	RoomID string `json:"room_id"`
	Token  string `json:"token"`
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// FlipTilePayload 翻牌请求
type FlipTilePayload struct {
	Index int `json:"index"`
}

// ClearSquarePayload 清除棋子请求
type ClearSquarePayload struct {
	Square string `json:"square"`
}

// ApplyMovePayload 走子请求
type ApplyMovePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomID   string `json:"room_id"`
	RoomType string `json:"room_type"` // casual / timed
	Duration int    `json:"duration"`  // 每方用时（秒），休闲房为 0
	Seat     int    `json:"seat"`
	Token    string `json:"token"`
}

// JoinFailedPayload 加入房间失败
type JoinFailedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// RoomFullPayload 两位玩家到齐
type RoomFullPayload struct {
	State   string       `json:"state"`
	Players []PlayerInfo `json:"players"`
}

// OpponentDisconnectedPayload 对手离开或掉线
type OpponentDisconnectedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Left       bool   `json:"left"` // true 为主动离开，false 为掉线
}

// TurnPayload 回合通知
type TurnPayload struct {
	Holder    string      `json:"holder"`
	TurnCount uint        `json:"turn_count"`
	Times     PlayerTimes `json:"times"`
}

// TileFlippedPayload 翻牌通知
type TileFlippedPayload struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Actor string `json:"actor"`
}

// TilesMatchedPayload 配对成功通知
type TilesMatchedPayload struct {
	Label   string `json:"label"`
	Indices []int  `json:"indices"`
	Actor   string `json:"actor"`
}

// SelectPiecePayload 提示配对者选择棋子
type SelectPiecePayload struct {
	Label string `json:"label"`
}

// UnflipTilesPayload 配对失败
type UnflipTilesPayload struct {
	Indices  []int  `json:"indices"`
	Position string `json:"position"` // 让步后的棋局
}

// SquareClearedPayload 棋子被清除
type SquareClearedPayload struct {
	Square   string `json:"square"`
	Piece    string `json:"piece"`
	Position string `json:"position"`
	Actor    string `json:"actor"`
}

// ClearFailedPayload 清除失败
type ClearFailedPayload struct {
	Square string `json:"square"`
	Reason string `json:"reason"`
}

// RemoveTilesPayload 吃子后移除的牌
type RemoveTilesPayload struct {
	Label   string `json:"label"`
	Indices []int  `json:"indices"`
}

// UpgradeTilePayload 升变后改写的牌
type UpgradeTilePayload struct {
	Tiles []TileUpgrade `json:"tiles"`
}

// TileUpgrade 单张改写
type TileUpgrade struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// PieceMovedPayload 走子通知
type PieceMovedPayload struct {
	Move     string `json:"move"`
	From     string `json:"from"`
	To       string `json:"to"`
	Captured string `json:"captured,omitempty"`
	Promoted string `json:"promoted,omitempty"`
	Position string `json:"position"`
	Actor    string `json:"actor"`
}

// MoveRejectedPayload invalid_move / illegal_move
type MoveRejectedPayload struct {
	Move   string `json:"move"`
	Reason string `json:"reason"`
}

// GameOverPayload 游戏结束通知，Winner 为空表示和棋
type GameOverPayload struct {
	Reason     string `json:"reason"` // checkmate / stalemate / material / timeout / forfeit
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winner_name,omitempty"`
	WinnerRole string `json:"winner_role,omitempty"`
}

// GameResetPayload 重新开局通知
type GameResetPayload struct {
	State    string `json:"state"`
	Position string `json:"position"`
	Reason   string `json:"reason,omitempty"`
}

// MemoryBoardPayload 记忆牌面
type MemoryBoardPayload struct {
	Deck    []string `json:"deck"`
	Flipped []int    `json:"flipped"`
}

// PlayerTimes 双方剩余时间（毫秒）
type PlayerTimes struct {
	P1 int64 `json:"p1"`
	P2 int64 `json:"p2"`
}

// PlayerInfoPayload 双方玩家信息
type PlayerInfoPayload struct {
	Player1 *PlayerInfo `json:"player1"`
	Player2 *PlayerInfo `json:"player2"`
}

// RoomInfoPayload 房间快照
type RoomInfoPayload struct {
	Room RoomInfo `json:"room"`
}

// RoomsRequestPayload 运维请求房间列表
type RoomsRequestPayload struct {
	Token string `json:"token"`
}

// RoomsPayload 房间列表
type RoomsPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// LeaderboardPayload 排行榜结果
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Draws      int     `json:"draws"`
	WinRate    float64 `json:"win_rate"`
}

// ChatPayload 聊天消息
type ChatPayload struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"` // 服务端填充
	Time   int64  `json:"time,omitempty"`   // 服务端填充
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	Seat      int    `json:"seat"`
	ConnID    string `json:"conn_id"`
	Role      string `json:"role,omitempty"` // white / black
	Connected bool   `json:"connected"`
	Remaining int64  `json:"remaining"` // 剩余时间（毫秒）
	Identity
}

// RoomInfo 房间快照
type RoomInfo struct {
	RoomID     string       `json:"room_id"`
	RoomType   string       `json:"room_type"`
	Duration   int          `json:"duration"`
	State      string       `json:"state"`
	TurnHolder string       `json:"turn_holder,omitempty"`
	TurnCount  uint         `json:"turn_count"`
	Position   string       `json:"position"`
	Pending    string       `json:"pending_clear,omitempty"`
	Players    []PlayerInfo `json:"players"`
	Deck       []string     `json:"deck,omitempty"`
	CreatedAt  int64        `json:"created_at"`
}
