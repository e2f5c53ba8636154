package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	lockMap sync.Map
)

// WithDelay ждет освобождения ключа не дольше wait и выполняет safeCode под блокировкой процесса
func WithDelay(ctx context.Context, key string, wait time.Duration, safeCode func() error) (success bool, err error) {
	isLocked := false
	isTimeout := time.After(wait)
	for {
		if _, loaded := lockMap.LoadOrStore(key, true); !loaded {
			isLocked = true
			break
		}
		select {
		case <-isTimeout:
			return false, nil
		case <-ctx.Done():
			return false, nil
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
	if isLocked {
		defer lockMap.Delete(key)
		return true, safeCode()
	}
	return false, nil
}

// Locker не дает одной и той же задаче выполняться параллельно
type Locker interface {
	// TryRun выполняет fn, если ключ свободен. ran == false, если ключ занят другим запуском
	TryRun(ctx context.Context, key string, ttl time.Duration, fn func() error) (ran bool, err error)
}

// NewLocker блокировка через Redis, если клиент задан, иначе в пределах процесса
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return localLocker{}
	}
	return &redisLocker{
		client:  client,
		prefix:  "shift-tools:lock",
		release: redis.NewScript(releaseScript),
	}
}

type localLocker struct{}

func (l localLocker) TryRun(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error) {
	if _, loaded := lockMap.LoadOrStore(key, true); loaded {
		return false, nil
	}
	defer lockMap.Delete(key)
	return true, fn()
}

// снимаем только свою блокировку: ключ мог истечь и достаться другой реплике
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLocker struct {
	client  *redis.Client
	prefix  string
	release *redis.Script
}

func (l *redisLocker) TryRun(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error) {
	redisKey := l.prefix + ":" + key
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "ошибка получения блокировки в redis")
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.release.Run(releaseCtx, l.client, []string{redisKey}, token)
	}()
	return true, fn()
}
