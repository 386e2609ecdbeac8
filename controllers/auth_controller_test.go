package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"teamup/controllers"
	"teamup/middleware"
	models "teamup/models/postgres"
	redis_models "teamup/models/redis"
	redis_service "teamup/services/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// memoryStore is an in-memory stand-in for the Redis-backed Store.
type memoryStore struct {
	challenges map[string]*redis_models.OTPChallenge
	revoked    map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		challenges: make(map[string]*redis_models.OTPChallenge),
		revoked:    make(map[string]bool),
	}
}

func (m *memoryStore) SaveOTPChallenge(identifier string, ch *redis_models.OTPChallenge, _ time.Duration) error {
	cp := *ch
	m.challenges[identifier] = &cp
	return nil
}

func (m *memoryStore) GetOTPChallenge(identifier string) (*redis_models.OTPChallenge, error) {
	ch, ok := m.challenges[identifier]
	if !ok {
		return nil, redis_service.ErrChallengeNotFound
	}
	cp := *ch
	return &cp, nil
}

func (m *memoryStore) UpdateOTPChallenge(identifier string, ch *redis_models.OTPChallenge) error {
	cp := *ch
	m.challenges[identifier] = &cp
	return nil
}

func (m *memoryStore) DeleteOTPChallenge(identifier string) error {
	delete(m.challenges, identifier)
	return nil
}

func (m *memoryStore) RevokeToken(jti string, _ time.Duration) error {
	m.revoked[jti] = true
	return nil
}

func (m *memoryStore) IsTokenRevoked(jti string) (bool, error) {
	return m.revoked[jti], nil
}

// captureSender records the last delivered code instead of sending it.
type captureSender struct {
	identifier string
	kind       string
	code       string
}

func (s *captureSender) Send(identifier, kind, code string) error {
	s.identifier = identifier
	s.kind = kind
	s.code = code
	return nil
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB, *memoryStore, *captureSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Game{}, &models.Membership{}))

	store := newMemoryStore()
	sender := &captureSender{}

	router := gin.New()
	router.POST("/auth/otp/request", controllers.RequestOTP(store, sender))
	router.POST("/auth/otp/verify", controllers.VerifyOTP(db, store))

	authenticated := router.Group("/auth")
	authenticated.Use(middleware.AuthRequired(store))
	{
		authenticated.DELETE("/logout", controllers.Logout(store))
		authenticated.GET("/me", controllers.GetMe(db))
		authenticated.PATCH("/update", controllers.UpdateProfile(db))
	}
	return router, db, store, sender
}

func TestOTPSignInFlow(t *testing.T) {
	router, db, _, sender := setupAuthRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{
		"email":      "ana@example.com",
		"first_name": "Ana",
		"last_name":  "García",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, sender.code, 6)
	assert.Equal(t, "ana@example.com", sender.identifier)
	assert.Equal(t, "email", sender.kind)

	// Wrong code first.
	wrong := "000000"
	if sender.code == wrong {
		wrong = "000001"
	}
	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
		"email": "ana@example.com",
		"code":  wrong,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Right code issues a session and creates the profile.
	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
		"email": "ana@example.com",
		"code":  sender.code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID        string `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"user"`
	}
	require.NoError(t, decodeBody(w, &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ana", resp.User.FirstName)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The challenge is consumed: the same code cannot be replayed.
	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
		"email": "ana@example.com",
		"code":  sender.code,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The token opens the profile endpoint.
	w = doJSON(router, http.MethodGet, "/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOTPVerifyExistingUserKeepsProfile(t *testing.T) {
	router, db, _, sender := setupAuthRouter(t)

	email := "ana@example.com"
	existing := models.User{FirstName: "Ana", LastName: "García", Email: &email}
	require.NoError(t, db.Create(&existing).Error)

	w := doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{"email": email})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{"email": email, "code": sender.code})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "verification must not duplicate the user")
}

func TestOTPAttemptCap(t *testing.T) {
	router, _, _, sender := setupAuthRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{"email": "ana@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	wrong := "000000"
	if sender.code == wrong {
		wrong = "000001"
	}
	for i := 0; i < 5; i++ {
		w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
			"email": "ana@example.com",
			"code":  wrong,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Even the right code is rejected once the cap is hit.
	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
		"email": "ana@example.com",
		"code":  sender.code,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOTPPhoneSignIn(t *testing.T) {
	router, db, _, sender := setupAuthRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{
		"phone":      "+54 11 5555-0001",
		"first_name": "Bruno",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "phone", sender.kind)

	w = doJSON(router, http.MethodPost, "/auth/otp/verify", "", gin.H{
		"phone": "+54 11 5555-0001",
		"code":  sender.code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user).Error)
	require.NotNil(t, user.Phone)
	assert.Nil(t, user.Email)
	assert.Equal(t, "Bruno", user.FirstName)
}

func TestOTPRequestRejectsBadIdentifier(t *testing.T) {
	router, _, _, _ := setupAuthRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/otp/request", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	router, db, _, _ := setupAuthRouter(t)
	_, token := signUpUser(t, db, "ana@example.com")

	w := doJSON(router, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	router, db, _, _ := setupAuthRouter(t)
	user, token := signUpUser(t, db, "ana@example.com")

	w := doJSON(router, http.MethodPatch, "/auth/update", token, gin.H{"first_name": "Anita"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, "Anita", updated.FirstName)
	assert.Equal(t, "Player", updated.LastName)
}
