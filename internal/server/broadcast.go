package server

import (
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/types"
)

// GetOnlineCount 获取在线人数（按需调用）
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// BroadcastToLobby 广播消息给不在房间内的客户端
func (s *Server) BroadcastToLobby(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if client.GetRoom() == "" {
			client.SendMessage(msg)
		}
	}
}

// JoinGroup 客户端加入房间分组
func (s *Server) JoinGroup(roomID string, client types.ClientInterface) {
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()

	group, ok := s.groups[roomID]
	if !ok {
		group = make(map[string]types.ClientInterface)
		s.groups[roomID] = group
	}
	group[client.GetID()] = client
}

// LeaveGroup 客户端离开房间分组，分组为空时删除
func (s *Server) LeaveGroup(roomID, clientID string) {
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()

	group, ok := s.groups[roomID]
	if !ok {
		return
	}
	delete(group, clientID)
	if len(group) == 0 {
		delete(s.groups, roomID)
	}
}

// BroadcastToRoom 广播消息给房间内所有客户端
func (s *Server) BroadcastToRoom(roomID string, msg *protocol.Message) {
	s.BroadcastToRoomExcept(roomID, "", msg)
}

// BroadcastToRoomExcept 广播消息给房间内除 exceptID 外的客户端
func (s *Server) BroadcastToRoomExcept(roomID, exceptID string, msg *protocol.Message) {
	s.groupsMu.RLock()
	defer s.groupsMu.RUnlock()

	for id, client := range s.groups[roomID] {
		if id != exceptID {
			client.SendMessage(msg)
		}
	}
}

// groupSize 房间分组内的连接数
func (s *Server) groupSize(roomID string) int {
	s.groupsMu.RLock()
	defer s.groupsMu.RUnlock()
	return len(s.groups[roomID])
}
