package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	defaultTTL     = 5 * time.Minute
	releaseTimeout = 5 * time.Second
	keyPrefix      = "resume-import:lease:"
)

// Only the holder's token may extend or delete the key.
const (
	refreshScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("PEXPIRE", KEYS[1], ARGV[2]) end return 0`
	releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`
)

type leaseClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLease holds one key per session for as long as the run is alive. The
// key is refreshed in the background at a third of its TTL, so a crashed
// process frees the session after at most one TTL.
type RedisLease struct {
	client leaseClient
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisLease(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisLease {
	return newRedisLease(client, ttl, log)
}

func newRedisLease(client leaseClient, ttl time.Duration, log logrus.FieldLogger) *RedisLease {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLease{client: client, ttl: ttl, log: log}
}

func (l *RedisLease) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := keyPrefix + sessionID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease for %s: %w", sessionID, err)
	}
	if !ok {
		return nil, domain.ErrSessionLeased
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.keepAlive(key, token, stop, stopped)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-stopped

			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := l.client.Eval(rctx, releaseScript, []string{key}, token).Err(); err != nil {
				l.log.WithError(err).WithField("session_id", sessionID).Warn("lease release failed")
			}
		})
	}
	return release, nil
}

func (l *RedisLease) keepAlive(key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			n, err := l.client.Eval(ctx, refreshScript, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil {
				l.log.WithError(err).WithField("key", key).Warn("lease refresh failed")
				continue
			}
			if n == 0 {
				l.log.WithField("key", key).Error("lease lost")
				return
			}
		}
	}
}
