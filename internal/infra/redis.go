// README: Redis client initialization for the GEO mirror and event channel.
package infra

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds the shared client. Short I/O timeouts keep a slow Redis
// from stalling the matching workers that publish through it.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ClientName:   "logishare-api",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}
