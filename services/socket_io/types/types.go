package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer contains the socket.io server and a map of live connections.
// It is the realtime change-notification channel: after every successful
// games/user_games mutation the controllers push an event through it and
// connected clients re-fetch their game list.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track user id -> socket connection
	UserConnections map[string]*socket.Socket
	mutex           sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]*socket.Socket),
	}
}

func (s *SocketServer) AddConnection(userID string, client *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserConnections[userID] = client
}

func (s *SocketServer) RemoveConnection(userID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.UserConnections, userID)
}

func (s *SocketServer) GetConnection(userID string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	client, exists := s.UserConnections[userID]
	return client, exists
}

// Broadcast emits an event to every connected client.
func (s *SocketServer) Broadcast(event string, payload interface{}) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, client := range s.UserConnections {
		client.Emit(event, payload)
	}
}

// NotifyChange implements the games.ChangeNotifier interface. Clients
// receiving games_changed re-run the full list fetch rather than patching.
func (s *SocketServer) NotifyChange(table string, action string, gameID uint) {
	s.Broadcast("games_changed", map[string]interface{}{
		"table":   table,
		"action":  action,
		"game_id": gameID,
	})
}
