package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 凭令牌重回房间
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgStartGame  MessageType = "start_game"  // 开始对局
	MsgResetGame  MessageType = "reset_game"  // 重新开局
	MsgResign     MessageType = "resign"      // 认输

	// 对局操作
	MsgFlipTile    MessageType = "flip_tile"    // 翻牌
	MsgMatchTiles  MessageType = "match_tiles"  // 配对已翻开的两张牌
	MsgClearSquare MessageType = "clear_square" // 使用配对奖励清除棋子
	MsgApplyMove   MessageType = "apply_move"   // 走子
	MsgTimeout     MessageType = "timeout"      // 请求超时判定；服务端以同名消息通知超时结果

	// 查询
	MsgGetPlayerTimes MessageType = "get_player_times" // 双方剩余时间
	MsgPlayerInfo     MessageType = "player_info"      // 双方玩家信息
	MsgGetMemoryBoard MessageType = "get_memory_board" // 记忆牌面
	MsgRoomInfo       MessageType = "room_info"        // 房间快照
	MsgRooms          MessageType = "rooms"            // 全部房间（运维调试）
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 排行榜
	MsgChat           MessageType = "chat"             // 聊天消息
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgPong MessageType = "pong" // 心跳 pong

	// 房间相关
	MsgRoomJoined           MessageType = "room_joined"           // 加入房间成功
	MsgJoinFailed           MessageType = "join_failed"           // 加入房间失败
	MsgRoomFull             MessageType = "room_full"             // 两位玩家均已到齐
	MsgOpponentDisconnected MessageType = "opponent_disconnected" // 对手离开或掉线

	// 对局流程
	MsgTurn         MessageType = "turn"          // 回合切换
	MsgTileFlipped  MessageType = "tile_flipped"  // 有人翻牌
	MsgTilesMatched MessageType = "tiles_matched" // 配对成功
	MsgSelectPiece  MessageType = "select_piece"  // 提示配对者选择要清除的棋子
	MsgUnflipTiles  MessageType = "unflip_tiles"  // 配对失败，牌翻回
	MsgSquareClear  MessageType = "square_cleared"
	MsgClearFailed  MessageType = "clear_failed"
	MsgRemoveTiles  MessageType = "remove_tiles" // 吃子后移除对应的牌
	MsgUpgradeTile  MessageType = "upgrade_tile" // 升变后改写对应的牌
	MsgPieceMoved   MessageType = "piece_moved"
	MsgInvalidMove  MessageType = "invalid_move"
	MsgIllegalMove  MessageType = "illegal_move"
	MsgCheckmate    MessageType = "checkmate"
	MsgStalemate    MessageType = "stalemate"
	MsgGameOver     MessageType = "game_over"
	MsgGameReset    MessageType = "game_reset"

	// 查询结果
	MsgPlayerTimes MessageType = "player_times"
	MsgMemoryBoard MessageType = "memory_board"
	MsgLeaderboard MessageType = "leaderboard"

	// 错误
	MsgError MessageType = "error" // 错误消息
)
