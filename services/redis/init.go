package redis

import (
	"fmt"
	"log"
)

// InitRedis initializes the Redis connection and basic configuration
func InitRedis(addr string, db int) (*RedisClient, error) {
	rc := NewRedisClient(addr, db)

	// Test connection
	err := rc.Client.Ping(rc.Ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")

	return rc, nil
}

// CloseRedis gracefully closes the Redis connection
func CloseRedis(rc *RedisClient) error {
	if err := rc.Client.Close(); err != nil {
		return fmt.Errorf("error closing Redis connection: %v", err)
	}
	return nil
}
