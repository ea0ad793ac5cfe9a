package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mines_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimiter - ограничение частоты запросов фиксированным окном в Redis.
// Ключ - игрок, а до его определения - IP.
type RateLimiter struct {
	client *redis.Client
	limit  int
	now    func() time.Time
}

// NewRedisRateLimiter подключается к Redis; пустой addr или limit <= 0 отключают лимит
func NewRedisRateLimiter(addr, password string, db, limit int) *RateLimiter {
	rl := &RateLimiter{limit: limit, now: time.Now}
	if addr == "" || limit <= 0 {
		logger.Warn("rate limiter отключен", "redis_addr", addr, "limit", limit)
		return rl
	}

	rl.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rl.client.Ping(ctx).Err(); err != nil {
		// лимитер остается включенным: при недоступности Redis запросы пропускаются
		logger.Error("redis недоступен", "addr", addr, "error", err)
	}
	return rl
}

func (rl *RateLimiter) Close() error {
	if rl.client == nil {
		return nil
	}
	return rl.client.Close()
}

func (rl *RateLimiter) key(id string) string {
	window := rl.now().Unix() / int64(rateLimitWindow.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", id, window)
}

// Allow увеличивает счетчик окна и сообщает, не превышен ли лимит
func (rl *RateLimiter) Allow(ctx context.Context, id string) (bool, error) {
	if rl == nil || rl.client == nil {
		return true, nil
	}

	key := rl.key(id)
	n, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(rl.limit), nil
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := PlayerID(c)
		if id == "" {
			id = "ip:" + c.ClientIP()
		}

		ok, err := rl.Allow(c.Request.Context(), id)
		if err != nil {
			logger.Warn("rate limiter: ошибка redis, запрос пропущен", "error", err)
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
