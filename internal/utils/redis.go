package utils

import (
	"github.com/redis/go-redis/v9"

	"carte-elus/internal/config"
	"carte-elus/internal/logger"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未配置主机时返回 nil，调用方按"无缓存"处理
func OpenRedis(c config.Redis) *redis.Client {
	addr := c.Addr()
	if addr == "" {
		return nil
	}
	db := c.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_config", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: c.Pass, DB: db})
}
