package jwt

import (
	"time"

	"github.com/go-redis/redis/v8"
)

const RefreshTokenTTL = 24 * 30 * time.Hour

const AccessTokenTTL = 15 * time.Minute

const (
	RoleUser Role = iota
)

var (
	RedisClient *redis.Client
	RoleSecrets = map[Role]string{}
)

// Init sets the signing secret and the Redis client that holds refresh tokens.
func Init(userSecret string, client *redis.Client) {
	RoleSecrets[RoleUser] = userSecret
	RedisClient = client
}
