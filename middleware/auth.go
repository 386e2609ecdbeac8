package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	redis_service "teamup/services/redis"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	userIDKey = "user_id"
	claimsKey = "session_claims"

	// TokenTTL is the lifetime of an issued session token.
	TokenTTL = 7 * 24 * time.Hour
)

// SessionClaims is the decoded session state carried by a bearer token.
type SessionClaims struct {
	UserID     string
	Identifier string
	JTI        string
	ExpiresAt  time.Time
}

func jwtSecret() []byte {
	key := os.Getenv("JWT_SECRET")
	if key == "" {
		key = "secret"
	}
	return []byte(key)
}

// GenerateToken issues a signed session token for a verified user.
func GenerateToken(userID, identifier string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        userID,
		"identifier": identifier,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// DecodeToken validates a raw token string and extracts its session claims.
func DecodeToken(raw string) (*SessionClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	session := &SessionClaims{}
	if sub, ok := claims["sub"].(string); ok {
		session.UserID = sub
	}
	if identifier, ok := claims["identifier"].(string); ok {
		session.Identifier = identifier
	}
	if jti, ok := claims["jti"].(string); ok {
		session.JTI = jti
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if session.UserID == "" {
		return nil, errors.New("token is missing the subject claim")
	}
	return session, nil
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", false
	}
	return raw, true
}

// AuthRequired gates every membership mutation and profile endpoint: it
// resolves the session from the bearer token before the handler runs and
// aborts with 401 when no valid, unrevoked session is present. The store may
// be nil, in which case revocation is not checked.
func AuthRequired(store redis_service.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		session, err := DecodeToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}

		if store != nil {
			revoked, err := store.IsTokenRevoked(session.JTI)
			if err == nil && revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session revoked"})
				return
			}
		}

		c.Set(userIDKey, session.UserID)
		c.Set(claimsKey, session)
		c.Next()
	}
}

// CurrentUserID returns the session user id placed by AuthRequired, or ""
// when the request is unauthenticated.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// CurrentClaims returns the full session claims placed by AuthRequired.
func CurrentClaims(c *gin.Context) (*SessionClaims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*SessionClaims)
	return claims, ok
}
