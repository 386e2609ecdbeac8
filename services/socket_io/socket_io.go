package socket_io

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamup/middleware"
	models "teamup/models/postgres"
	socketio_types "teamup/services/socket_io/types"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type TeamUpSocketServer socketio_types.SocketServer

// Start mounts the realtime notification channel on the router. Connected
// clients receive games_changed events and are removed from the connection
// map when their view tears down (disconnecting), releasing the channel.
func (sio *TeamUpSocketServer) Start(router *gin.Engine, db *gorm.DB) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		success, userID := verifyUserConnection(client, db)
		if !success {
			return
		}

		(*socketio_types.SocketServer)(sio).AddConnection(userID, client)
		log.Printf("Realtime client connected: %s", userID)

		// NOTE: will remove sio connection from map
		client.On("disconnecting", func(...interface{}) {
			(*socketio_types.SocketServer)(sio).RemoveConnection(userID)
			log.Printf("Realtime client disconnected: %s", userID)
		})
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}

// verifyUserConnection authenticates a socket.io client with the same bearer
// token the HTTP API uses, passed in the handshake auth data.
func verifyUserConnection(client *socket.Socket, db *gorm.DB) (success bool, userID string) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		return false, ""
	}

	token, exists := authData["authorization"].(string)
	if !exists {
		client.Emit("error", gin.H{"error": "Authentication failed: missing authorization token"})
		return false, ""
	}

	session, err := middleware.DecodeToken(token)
	if err != nil {
		client.Emit("error", gin.H{"error": "Authentication failed: invalid session token"})
		return false, ""
	}

	var user models.User
	if err := db.First(&user, "id = ?", session.UserID).Error; err != nil {
		client.Emit("error", gin.H{"error": "Authentication failed: could not find user"})
		return false, ""
	}

	return true, user.ID
}
