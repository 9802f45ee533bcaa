package room

// State 房间状态
type State int

const (
	StateWaiting State = iota // 等待第二位玩家
	StateReady                // 两人到齐，尚未开局
	StatePlaying              // 对局中
	StateOver                 // 已分出结果，等待重开
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateOver:
		return "over"
	default:
		return "unknown"
	}
}
