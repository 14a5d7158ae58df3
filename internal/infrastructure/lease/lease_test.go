package lease

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type fakeRedis struct {
	mu      sync.Mutex
	keys    map[string]string
	setErr  error
	scripts []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: make(map[string]string)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scripts = append(f.scripts, script)
	if f.keys[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	if script == releaseScript {
		delete(f.keys, keys[0])
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

func (f *fakeRedis) evalCount(script string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.scripts {
		if s == script {
			n++
		}
	}
	return n
}

func TestRedisLeaseExcludesSecondHolder(t *testing.T) {
	log, _ := test.NewNullLogger()
	client := newFakeRedis()
	l := newRedisLease(client, time.Minute, log)

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, client.has(keyPrefix+"s1"))

	_, err = l.Acquire(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionLeased)

	release()
	release()
	assert.False(t, client.has(keyPrefix+"s1"))
	assert.Equal(t, 1, client.evalCount(releaseScript))

	again, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	again()
}

func TestRedisLeaseRefreshesWhileHeld(t *testing.T) {
	log, _ := test.NewNullLogger()
	client := newFakeRedis()
	l := newRedisLease(client, 30*time.Millisecond, log)

	release, err := l.Acquire(context.Background(), "s2")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return client.evalCount(refreshScript) >= 2
	}, time.Second, 5*time.Millisecond)
	release()
}

func TestRedisLeaseSurfacesClientErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	client := newFakeRedis()
	client.setErr = errors.New("connection refused")
	l := newRedisLease(client, time.Minute, log)

	_, err := l.Acquire(context.Background(), "s3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionLeased)
}

func TestRedisLeaseAgainstServer(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	log, _ := test.NewNullLogger()
	l := NewRedisLease(client, time.Second, log)
	sessionID := "integration-" + time.Now().Format("150405.000000")

	release, err := l.Acquire(context.Background(), sessionID)
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionLeased)

	release()
	again, err := l.Acquire(context.Background(), sessionID)
	require.NoError(t, err)
	again()
}

func TestMemoryLease(t *testing.T) {
	l := NewMemoryLease()

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionLeased)

	other, err := l.Acquire(context.Background(), "s2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	again()
}
