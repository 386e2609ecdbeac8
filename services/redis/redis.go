package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	redis_models "teamup/models/redis"

	"github.com/redis/go-redis/v9"
)

// ErrChallengeNotFound is returned when no OTP challenge exists for an
// identifier (never requested, expired or already consumed).
var ErrChallengeNotFound = errors.New("otp challenge not found")

// Store is the subset of RedisClient the auth flow depends on. Controllers
// and middleware take this interface so tests can substitute an in-memory
// implementation.
type Store interface {
	SaveOTPChallenge(identifier string, challenge *redis_models.OTPChallenge, ttl time.Duration) error
	GetOTPChallenge(identifier string) (*redis_models.OTPChallenge, error)
	UpdateOTPChallenge(identifier string, challenge *redis_models.OTPChallenge) error
	DeleteOTPChallenge(identifier string) error
	RevokeToken(jti string, ttl time.Duration) error
	IsTokenRevoked(jti string) (bool, error)
}

// RedisClient handles Redis operations
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(addr string, db int) *RedisClient {
	var client *redis.Client
	if addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}
	return &RedisClient{
		Client: client,
		Ctx:    context.Background(),
	}
}

func otpKey(identifier string) string {
	return fmt.Sprintf("otp:%s", identifier)
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// SaveOTPChallenge stores a challenge under otp:<identifier> with the given
// TTL. A re-request for the same identifier overwrites the previous code.
func (rc *RedisClient) SaveOTPChallenge(identifier string, challenge *redis_models.OTPChallenge, ttl time.Duration) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP challenge: %v", err)
	}
	if err := rc.Client.Set(rc.Ctx, otpKey(identifier), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save OTP challenge: %v", err)
	}
	return nil
}

// GetOTPChallenge loads the pending challenge for an identifier.
func (rc *RedisClient) GetOTPChallenge(identifier string) (*redis_models.OTPChallenge, error) {
	raw, err := rc.Client.Get(rc.Ctx, otpKey(identifier)).Result()
	if err == redis.Nil {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get OTP challenge: %v", err)
	}
	var challenge redis_models.OTPChallenge
	if err := json.Unmarshal([]byte(raw), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP challenge: %v", err)
	}
	return &challenge, nil
}

// UpdateOTPChallenge rewrites a challenge (attempt counting) without
// resetting its expiry.
func (rc *RedisClient) UpdateOTPChallenge(identifier string, challenge *redis_models.OTPChallenge) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP challenge: %v", err)
	}
	if err := rc.Client.Set(rc.Ctx, otpKey(identifier), raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update OTP challenge: %v", err)
	}
	return nil
}

// DeleteOTPChallenge removes a consumed or exhausted challenge.
func (rc *RedisClient) DeleteOTPChallenge(identifier string) error {
	if err := rc.Client.Del(rc.Ctx, otpKey(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP challenge: %v", err)
	}
	return nil
}

// RevokeToken marks a session token id as logged out until the token would
// have expired anyway.
func (rc *RedisClient) RevokeToken(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := rc.Client.Set(rc.Ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token %s: %v", jti, err)
	}
	return nil
}

// IsTokenRevoked checks whether a session token id was logged out.
func (rc *RedisClient) IsTokenRevoked(jti string) (bool, error) {
	n, err := rc.Client.Exists(rc.Ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %v", err)
	}
	return n > 0, nil
}
