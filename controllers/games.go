package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"teamup/middleware"
	models "teamup/models/postgres"
	"teamup/services/games"

	"github.com/gin-gonic/gin"
)

type createGameBody struct {
	Date            time.Time `json:"date" binding:"required"`
	PlayersRequired int       `json:"players_required" binding:"required,min=1"`
	Location        struct {
		Name    string  `json:"name" binding:"required"`
		Address string  `json:"address"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	} `json:"location" binding:"required"`
}

type invitationResponseBody struct {
	Status string `json:"status" binding:"required"`
}

func gameIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("game_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id"})
		return 0, false
	}
	return uint(id), true
}

// writeGameError maps the service error taxonomy to HTTP statuses. The
// failure stays scoped to the single operation that produced it.
func writeGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, games.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, games.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
	case errors.Is(err, games.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member of this game"})
	case errors.Is(err, games.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be confirmed or rejected"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// @Summary Creates a new game
// @Description Creates a pickup-game event and joins the creator as a confirmed member
// @Tags games
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 201 {object} object{game=object}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string,game_id=integer}
// @Router /auth/games [post]
// @Security ApiKeyAuth
func CreateGame(svc *games.Service, notify games.ChangeNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body createGameBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		loc := models.Location{
			Name:    body.Location.Name,
			Address: body.Location.Address,
			Lat:     body.Location.Lat,
			Lng:     body.Location.Lng,
		}

		game, err := svc.CreateGame(middleware.CurrentUserID(c), body.Date, body.PlayersRequired, loc)

		var joinErr *games.CreatorJoinError
		if errors.As(err, &joinErr) {
			// The game exists without its creator; report it distinctly from
			// a bare creation failure so the client can retry the join.
			notify.NotifyChange("games", games.ActionInsert, joinErr.GameID)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Game created but joining it failed",
				"game_id": joinErr.GameID,
			})
			return
		}
		if err != nil {
			writeGameError(c, err)
			return
		}

		notify.NotifyChange("games", games.ActionInsert, game.ID)
		readModel, fetchErr := svc.FetchGame(game.ID)
		if fetchErr != nil {
			c.JSON(http.StatusCreated, gin.H{"game": gin.H{"id": game.ID}})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"game": readModel})
	}
}

// @Summary Lists all games
// @Description Returns every game with its resolved player list, ordered by date
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {array} object{id=integer,date=string,players_required=integer}
// @Failure 500 {object} object{error=string}
// @Router /auth/games [get]
// @Security ApiKeyAuth
func ListGames(svc *games.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListGames()
		if err != nil {
			writeGameError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary Gives info of a game
// @Description Given a game id, returns the game with all memberships joined to player names
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path integer true "Id of the game wanted"
// @Success 200 {object} object{id=integer,players=array}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/games/{game_id} [get]
// @Security ApiKeyAuth
func GetGame(svc *games.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := gameIDParam(c)
		if !ok {
			return
		}
		game, err := svc.FetchGame(gameID)
		if err != nil {
			writeGameError(c, err)
			return
		}
		c.JSON(http.StatusOK, game)
	}
}

// @Summary Invitation view of a game
// @Description Shareable invitation read. The link carries no signature or expiry; responding requires an account.
// @Tags games
// @Produce json
// @Param game_id path integer true "Id of the game"
// @Success 200 {object} object{id=integer,players=array}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /games/{game_id}/invitation [get]
func GetGameInvitation(svc *games.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := gameIDParam(c)
		if !ok {
			return
		}
		game, err := svc.FetchGame(gameID)
		if err != nil {
			writeGameError(c, err)
			return
		}
		c.JSON(http.StatusOK, game)
	}
}

// @Summary Join a game
// @Description Inserts a confirmed membership for the caller. Fails with 409 when the caller already has one.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path integer true "Id of the game to join"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/games/{game_id}/join [post]
// @Security ApiKeyAuth
func JoinGame(svc *games.Service, notify games.ChangeNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := gameIDParam(c)
		if !ok {
			return
		}
		if err := svc.JoinGame(gameID, middleware.CurrentUserID(c)); err != nil {
			writeGameError(c, err)
			return
		}
		notify.NotifyChange("user_games", games.ActionInsert, gameID)
		c.JSON(http.StatusOK, gin.H{"message": "Joined game"})
	}
}

// @Summary Leave a game
// @Description Deletes the caller's membership. Leaving a game never joined is a no-op.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path integer true "Id of the game to leave"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/games/{game_id}/leave [delete]
// @Security ApiKeyAuth
func LeaveGame(svc *games.Service, notify games.ChangeNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := gameIDParam(c)
		if !ok {
			return
		}
		if err := svc.LeaveGame(gameID, middleware.CurrentUserID(c)); err != nil {
			writeGameError(c, err)
			return
		}
		notify.NotifyChange("user_games", games.ActionDelete, gameID)
		c.JSON(http.StatusOK, gin.H{"message": "Left game"})
	}
}

// @Summary Respond to an invitation
// @Description Upserts the caller's membership with the given status, overwriting any prior response
// @Tags games
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path integer true "Id of the game"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/games/{game_id}/invitation [put]
// @Security ApiKeyAuth
func RespondToInvitation(svc *games.Service, notify games.ChangeNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := gameIDParam(c)
		if !ok {
			return
		}
		var body invitationResponseBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := svc.RespondToInvitation(gameID, middleware.CurrentUserID(c), body.Status); err != nil {
			writeGameError(c, err)
			return
		}
		notify.NotifyChange("user_games", games.ActionUpdate, gameID)
		c.JSON(http.StatusOK, gin.H{"message": "Invitation response saved"})
	}
}
