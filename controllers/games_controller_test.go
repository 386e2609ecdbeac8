package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teamup/middleware"
	models "teamup/models/postgres"
	"teamup/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Game{}, &models.Membership{}))

	router := gin.New()
	routes.SetupRoutes(router, db, nil, nil)
	return router, db
}

func signUpUser(t *testing.T, db *gorm.DB, email string) (*models.User, string) {
	t.Helper()
	user := models.User{FirstName: "Test", LastName: "Player", Email: &email}
	require.NoError(t, db.Create(&user).Error)
	token, err := middleware.GenerateToken(user.ID, email)
	require.NoError(t, err)
	return &user, token
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, out interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), out)
}

func createGameViaAPI(t *testing.T, router *gin.Engine, token string) uint {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/auth/games", token, gin.H{
		"date":             time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		"players_required": 10,
		"location": gin.H{
			"name":    "Field A",
			"address": "Av. Siempreviva 742",
			"lat":     -34.6,
			"lng":     -58.4,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Game struct {
			ID uint `json:"id"`
		} `json:"game"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.Game.ID)
	return resp.Game.ID
}

type gameResponse struct {
	ID      uint `json:"id"`
	Players []struct {
		UserID    string `json:"user_id"`
		Status    string `json:"status"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"players"`
}

func TestCreateGameReturnsCreatorAsConfirmed(t *testing.T) {
	router, db := setupRouter(t)
	user, token := signUpUser(t, db, "creator@example.com")

	gameID := createGameViaAPI(t, router, token)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/auth/games/%d", gameID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var game gameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &game))
	require.Len(t, game.Players, 1)
	assert.Equal(t, user.ID, game.Players[0].UserID)
	assert.Equal(t, models.StatusConfirmed, game.Players[0].Status)
	assert.Equal(t, "Test", game.Players[0].FirstName)
}

func TestJoinRequiresAuthentication(t *testing.T) {
	router, db := setupRouter(t)
	_, token := signUpUser(t, db, "creator@example.com")
	gameID := createGameViaAPI(t, router, token)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, fmt.Sprintf("/auth/games/%d/join", gameID), nil},
		{http.MethodDelete, fmt.Sprintf("/auth/games/%d/leave", gameID), nil},
		{http.MethodPut, fmt.Sprintf("/auth/games/%d/invitation", gameID), gin.H{"status": "confirmed"}},
	}
	for _, tc := range tests {
		w := doJSON(router, tc.method, tc.path, "", tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}

	// None of the rejected calls may have touched the table.
	var count int64
	require.NoError(t, db.Model(&models.Membership{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only the creator's auto-join row should exist")
}

func TestJoinConflictOnSecondJoin(t *testing.T) {
	router, db := setupRouter(t)
	_, creatorToken := signUpUser(t, db, "creator@example.com")
	_, joinerToken := signUpUser(t, db, "joiner@example.com")
	gameID := createGameViaAPI(t, router, creatorToken)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/auth/games/%d/join", gameID), joinerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/auth/games/%d/join", gameID), joinerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLeaveGameIsIdempotentOverHTTP(t *testing.T) {
	router, db := setupRouter(t)
	_, token := signUpUser(t, db, "creator@example.com")
	gameID := createGameViaAPI(t, router, token)

	w := doJSON(router, http.MethodDelete, fmt.Sprintf("/auth/games/%d/leave", gameID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/auth/games/%d/leave", gameID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	router, db := setupRouter(t)
	_, creatorToken := signUpUser(t, db, "u1@example.com")
	invitee, inviteeToken := signUpUser(t, db, "u2@example.com")
	gameID := createGameViaAPI(t, router, creatorToken)

	// The shareable invitation view needs no session.
	w := doJSON(router, http.MethodGet, fmt.Sprintf("/games/%d/invitation", gameID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPut, fmt.Sprintf("/auth/games/%d/invitation", gameID), inviteeToken,
		gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/auth/games/%d", gameID), creatorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var game gameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &game))
	require.Len(t, game.Players, 2)

	w = doJSON(router, http.MethodPut, fmt.Sprintf("/auth/games/%d/invitation", gameID), inviteeToken,
		gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)

	var rows []models.Membership
	require.NoError(t, db.Where("game_id = ? AND user_id = ?", gameID, invitee.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusConfirmed, rows[0].Status)
}

func TestInvitationRejectsUnknownStatus(t *testing.T) {
	router, db := setupRouter(t)
	_, token := signUpUser(t, db, "creator@example.com")
	gameID := createGameViaAPI(t, router, token)

	w := doJSON(router, http.MethodPut, fmt.Sprintf("/auth/games/%d/invitation", gameID), token,
		gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGameNotFound(t *testing.T) {
	router, db := setupRouter(t)
	_, token := signUpUser(t, db, "creator@example.com")

	w := doJSON(router, http.MethodGet, "/auth/games/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListGamesReturnsReadModels(t *testing.T) {
	router, db := setupRouter(t)
	_, token := signUpUser(t, db, "creator@example.com")
	createGameViaAPI(t, router, token)
	createGameViaAPI(t, router, token)

	w := doJSON(router, http.MethodGet, "/auth/games", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []gameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
