package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/parentplanner/server/models"
)

// UserCache is a read-through cache for directory user records. Cache
// failures are never fatal: a miss falls back to the store.
type UserCache interface {
	Get(ctx context.Context, id string) (models.User, bool)
	Set(ctx context.Context, user models.User)
	Invalidate(ctx context.Context, id string)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (models.User, bool) { return models.User{}, false }
func (noCache) Set(context.Context, models.User)                {}
func (noCache) Invalidate(context.Context, string)              {}

// RedisUserCache stores users as JSON under "user:<id>".
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl}
}

func userKey(id string) string {
	return "user:" + id
}

func (c *RedisUserCache) Get(ctx context.Context, id string) (models.User, bool) {
	var user models.User

	userJSON, err := c.client.Get(ctx, userKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		}
		return user, false
	}
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		log.WithError(err).WithField("user_id", id).Warn("failed to unmarshal cached user")
		return models.User{}, false
	}
	if user.Friends == nil {
		user.Friends = []string{}
	}
	return user, true
}

func (c *RedisUserCache) Set(ctx context.Context, user models.User) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("failed to marshal user for cache")
		return
	}
	if err := c.client.Set(ctx, userKey(user.ID), userJSON, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("user cache write failed")
	}
}

func (c *RedisUserCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		log.WithError(err).WithField("user_id", id).Warn("user cache invalidation failed")
	}
}
