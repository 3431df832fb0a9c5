package config

import (
	"context"
	"fmt"
	"time"

	"tableadmin/internal/utils"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil (cache disabled) when addr is empty.
func ConnectRedis(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	utils.LogEvent("", "config", "connect_redis", "connected to redis at "+addr)
	return client, nil
}
