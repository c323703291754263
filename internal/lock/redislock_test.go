package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/lock"
)

type withLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

func newRedisLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, Prefix: "storefront:", RetryBackoff: 5 * time.Millisecond}, mr
}

func assertSerialises(t *testing.T, locker withLocker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	firstIn := make(chan struct{})
	releaseFirst := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		err := locker.WithLock(ctx, "checkout", time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstIn)
			<-releaseFirst
			return nil
		})
		assert.NoError(t, err)
	}()

	<-firstIn

	go func() {
		defer wg.Done()
		err := locker.WithLock(ctx, "checkout", time.Second, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first"}, order, "second caller must wait")
	mu.Unlock()

	close(releaseFirst)
	wg.Wait()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestRedisLockerSerialises(t *testing.T) {
	locker, mr := newRedisLocker(t)
	assertSerialises(t, locker)
	require.False(t, mr.Exists("storefront:checkout"), "lock key released")
}

func TestLocalLockerSerialises(t *testing.T) {
	t.Parallel()
	assertSerialises(t, &lock.Local{})
}

func TestRedisLockerReleasesOnError(t *testing.T) {
	locker, mr := newRedisLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "checkout", time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("storefront:checkout"))
}

func TestRedisLockerHonoursContext(t *testing.T) {
	locker, mr := newRedisLocker(t)
	require.NoError(t, mr.Set("storefront:checkout", "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	called := false
	err := locker.WithLock(ctx, "checkout", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, called)

	got, err := mr.Get("storefront:checkout")
	require.NoError(t, err)
	require.Equal(t, "someone-else", got, "foreign lock untouched")
}

func TestLocalLockerHonoursContext(t *testing.T) {
	t.Parallel()

	var local lock.Local
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = local.WithLock(context.Background(), "checkout", 0, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := local.WithLock(ctx, "checkout", 0, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, local.WithLock(context.Background(), "other-key", 0, func(context.Context) error { return nil }))
}

func TestLockerNotConfigured(t *testing.T) {
	t.Parallel()

	err := lock.Locker{}.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return nil })
	require.ErrorIs(t, err, lock.ErrNotConfigured)
}
