package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-score-portal/pkg/config"
)

const keyNamespace = "score-portal"

// NewRedis connects to the statistics cache. The client is closed again when the ping fails.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Key joins parts under the service namespace, e.g. score-portal:stats:ISMT.
func Key(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}

// Pattern matches every key below the given prefix parts.
func Pattern(parts ...string) string {
	return Key(parts...) + "*"
}
