package protocol

// 错误码
const (
	ErrCodeUnknown     = 1000
	ErrCodeInvalidMsg  = 1001
	ErrCodeRateLimit   = 1002 // 速率限制
	ErrCodeInvalidArgs = 1003 // 参数不合法
	ErrCodeForbidden   = 1004 // 运维口令不符

	ErrCodeRoomNotFound    = 2001
	ErrCodeRoomFull        = 2002
	ErrCodeNotInRoom       = 2003
	ErrCodeRoomExists      = 2004
	ErrCodeAlreadyInRoom   = 2005 // 已在其他房间
	ErrCodeInvalidRoomType = 2006

	ErrCodeGameNotStart   = 3001
	ErrCodeNotYourTurn    = 3002
	ErrCodeWrongState     = 3003 // 当前状态不允许该操作
	ErrCodeInvalidMove    = 3004 // 走法格式错误
	ErrCodeIllegalMove    = 3005 // 走法不合规则
	ErrCodeInvalidTile    = 3006
	ErrCodeNoPendingClear = 3007
	ErrCodeClearFailed    = 3008
	ErrCodeRewardPending  = 3009 // 须先使用配对奖励
	ErrCodeInCheck        = 3010
	ErrCodeTimeout        = 3011

	ErrCodeCorruptState      = 4001 // 棋局数据损坏，已重置
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeInvalidArgs:       "参数不合法",
	ErrCodeForbidden:         "无权访问",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeRoomExists:        "房间号已存在",
	ErrCodeAlreadyInRoom:     "您已在其他房间中",
	ErrCodeInvalidRoomType:   "无效的房间类型",
	ErrCodeGameNotStart:      "游戏尚未开始",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeWrongState:        "当前状态不允许该操作",
	ErrCodeInvalidMove:       "无效的走法",
	ErrCodeIllegalMove:       "不合规则的走法",
	ErrCodeInvalidTile:       "无效的牌位置",
	ErrCodeNoPendingClear:    "没有可用的配对奖励",
	ErrCodeClearFailed:       "无法清除该格子",
	ErrCodeRewardPending:     "请先使用配对奖励",
	ErrCodeInCheck:           "被将军时必须走棋应将",
	ErrCodeTimeout:           "时间已用完",
	ErrCodeCorruptState:      "棋局数据损坏，已重置",
	ErrCodeServerMaintenance: "服务器维护中",
}
