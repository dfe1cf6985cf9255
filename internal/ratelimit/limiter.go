package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rate limit purposes.
const (
	PurposeRegister = "register"
	PurposeLogin    = "login"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter counts requests per client IP and purpose in fixed windows stored
// in Redis.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "whisper:ratelimit",
		now:    time.Now,
	}, nil
}

// Allow records a request for ip under purpose and reports whether it is
// within quota. A nil Limiter allows everything.
func (l *Limiter) Allow(ctx context.Context, purpose, ip string) (bool, error) {
	if l == nil {
		return true, nil
	}

	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	key := fmt.Sprintf("%s:%s:%s:%d", l.prefix, purpose, ip, slot)

	count, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}
	return count <= int64(l.limit), nil
}
