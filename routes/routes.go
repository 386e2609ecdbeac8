package routes

import (
	"teamup/controllers"
	"teamup/middleware"
	"teamup/services/games"
	"teamup/services/places"
	"teamup/services/redis"
	socketio_types "teamup/services/socket_io/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient, sio *socketio_types.SocketServer) {
	gameService := games.NewService(db)
	placesClient := places.NewClient()

	var notifier games.ChangeNotifier = games.NopNotifier{}
	if sio != nil {
		notifier = sio
	}

	var store redis.Store
	if redisClient != nil {
		store = redisClient
	}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	// OTP sign-in flow
	api.POST("/auth/otp/request", controllers.RequestOTP(store, controllers.LogCodeSender{}))
	api.POST("/auth/otp/verify", controllers.VerifyOTP(db, store))

	// Shareable invitation link: no signature or expiry, anyone with the URL
	// can read the game; responding still requires a session.
	api.GET("/games/:game_id/invitation", controllers.GetGameInvitation(gameService))

	// Place lookup proxy
	api.GET("/places/autocomplete", controllers.PlacesAutocomplete(placesClient))
	api.GET("/places/details", controllers.PlaceDetails(placesClient))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired(store))
	{
		authentication.DELETE("/logout", controllers.Logout(store))

		authentication.GET("/me", controllers.GetMe(db))

		authentication.PATCH("/update", controllers.UpdateProfile(db))

		authentication.GET("/games", controllers.ListGames(gameService))

		authentication.POST("/games", controllers.CreateGame(gameService, notifier))

		authentication.GET("/games/:game_id", controllers.GetGame(gameService))

		authentication.POST("/games/:game_id/join", controllers.JoinGame(gameService, notifier))

		authentication.DELETE("/games/:game_id/leave", controllers.LeaveGame(gameService, notifier))

		authentication.PUT("/games/:game_id/invitation", controllers.RespondToInvitation(gameService, notifier))
	}
}
