package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process holds the lock
var ErrLockHeld = errors.New("lock held by another process")

// Lock is a single-holder lock (SET NX PX) shared across processes
// ⭐ SSOT: 리밸런싱 사이클 동시 실행 방지 (스케줄러 + API 수동 실행)
type Lock struct {
	client *Client
	prefix string
}

// NewLock creates a new lock helper
func NewLock(client *Client, prefix string) *Lock {
	return &Lock{
		client: client,
		prefix: prefix,
	}
}

// releaseScript deletes the key only if the token still matches
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Acquire takes the lock for ttl and returns a release function.
// Redis 비활성 시 항상 성공 (프로세스 내 뮤텍스만 적용)
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if !l.client.Enabled() {
		return func() {}, nil
	}

	key := fmt.Sprintf("%s:lock:%s", l.prefix, name)
	token := uuid.NewString()

	ok, err := l.client.Redis().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock acquire failed: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// 호출자 ctx가 취소되어도 해제는 시도
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client.Redis(), []string{key}, token).Err()
	}
	return release, nil
}
