package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"teamup/middleware"
	models "teamup/models/postgres"
	redis_models "teamup/models/redis"
	redis_service "teamup/services/redis"
	"teamup/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpLength      = 6
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
)

// CodeSender delivers a one-time code to an identifier. Mail/SMS transports
// live behind this interface; the default implementation only logs.
type CodeSender interface {
	Send(identifier, kind, code string) error
}

// LogCodeSender writes codes to the server log. Good enough for development
// and for environments where delivery is handled out-of-band.
type LogCodeSender struct{}

func (LogCodeSender) Send(identifier, kind, code string) error {
	log.Printf("OTP for %s %s: %s", kind, identifier, code)
	return nil
}

type otpRequestBody struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type otpVerifyBody struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// @Summary Request a one-time sign-in code
// @Description Sends a 6-digit code to the given email or phone. Optional profile fields are kept for first-time users.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/otp/request [post]
func RequestOTP(store redis_service.Store, sender CodeSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body otpRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		identifier, kind, err := utils.NormalizeIdentifier(body.Email, body.Phone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		code, err := generateCode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating code"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating code"})
			return
		}

		challenge := &redis_models.OTPChallenge{
			CodeHash:  string(hash),
			FirstName: body.FirstName,
			LastName:  body.LastName,
			CreatedAt: time.Now(),
		}
		if err := store.SaveOTPChallenge(identifier, challenge, otpTTL); err != nil {
			log.Printf("Error saving OTP challenge: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving verification code"})
			return
		}

		if err := sender.Send(identifier, kind, code); err != nil {
			log.Printf("Error sending OTP code: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error sending verification code"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
	}
}

// @Summary Verify a one-time code
// @Description Checks the code for the identifier and returns a session token. The user profile is created on first verification.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object{token=string,user=object}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/otp/verify [post]
func VerifyOTP(db *gorm.DB, store redis_service.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body otpVerifyBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		identifier, kind, err := utils.NormalizeIdentifier(body.Email, body.Phone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		challenge, err := store.GetOTPChallenge(identifier)
		if errors.Is(err, redis_service.ErrChallengeNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Code expired or never requested"})
			return
		}
		if err != nil {
			log.Printf("Error loading OTP challenge: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error verifying code"})
			return
		}

		if challenge.Attempts >= otpMaxAttempts {
			store.DeleteOTPChallenge(identifier)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Too many attempts, request a new code"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(body.Code)) != nil {
			challenge.Attempts++
			if err := store.UpdateOTPChallenge(identifier, challenge); err != nil {
				log.Printf("Error updating OTP attempts: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
			return
		}

		store.DeleteOTPChallenge(identifier)

		user, err := findOrCreateUser(db, identifier, kind, challenge)
		if err != nil {
			log.Printf("Error resolving user for %s: %v", identifier, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
			return
		}

		token, err := middleware.GenerateToken(user.ID, identifier)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": publicUser(user)})
	}
}

// findOrCreateUser looks the identifier up and creates the profile on first
// verification, using the metadata stored with the challenge.
func findOrCreateUser(db *gorm.DB, identifier, kind string, challenge *redis_models.OTPChallenge) (*models.User, error) {
	column := "email"
	if kind == utils.IdentifierPhone {
		column = "phone"
	}

	var user models.User
	err := db.Where(column+" = ?", identifier).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		FirstName: challenge.FirstName,
		LastName:  challenge.LastName,
	}
	if kind == utils.IdentifierPhone {
		user.Phone = &identifier
	} else {
		user.Email = &identifier
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func publicUser(user *models.User) gin.H {
	out := gin.H{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	if user.Email != nil {
		out["email"] = *user.Email
	}
	if user.Phone != nil {
		out["phone"] = *user.Phone
	}
	return out
}

// @Summary Sign out
// @Description Revokes the current session token for its remaining lifetime
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(store redis_service.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		if store != nil {
			if err := store.RevokeToken(claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
				log.Printf("Error revoking token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error signing out"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
	}
}

// @Summary Current user's profile
// @Description Returns the profile of the authenticated user
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{id=string,first_name=string,last_name=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, "id = ?", middleware.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, publicUser(&user))
	}
}

type profileUpdateBody struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// @Summary Update profile
// @Description Updates the mutable profile fields of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{id=string,first_name=string,last_name=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/update [patch]
// @Security ApiKeyAuth
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body profileUpdateBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", middleware.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		updates := map[string]interface{}{}
		if body.FirstName != "" {
			updates["first_name"] = body.FirstName
		}
		if body.LastName != "" {
			updates["last_name"] = body.LastName
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating profile"})
				return
			}
		}
		c.JSON(http.StatusOK, publicUser(&user))
	}
}
