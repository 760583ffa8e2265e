//go:build integration

package storage

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/entity"
)

// newTestRedis подключается к TEST_REDIS_ADDR, иначе пропускает тест.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cli, err := NewRedisClient(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestRedisSubscriptionRepository_AddRemove(t *testing.T) {
	cli := newTestRedis(t)
	repo := NewRedisSubscriptionRepository(cli)
	ctx := context.Background()

	// отдельные чаты и животное, чтобы не задеть чужие данные
	chatA := -time.Now().UnixNano()
	chatB := chatA - 1
	animal := "test-" + strconv.FormatInt(-chatA, 36)
	t.Cleanup(func() {
		cli.Del(ctx, chatKey(chatA), chatKey(chatB), animalKey(animal))
		cli.SRem(ctx, chatsIndexKey, chatA, chatB)
	})

	added, err := repo.Add(ctx, entity.NewSubscription(chatA, animal))
	require.NoError(t, err)
	require.True(t, added)

	// повторная подписка ничего не меняет
	added, err = repo.Add(ctx, entity.NewSubscription(chatA, animal))
	require.NoError(t, err)
	require.False(t, added)

	_, err = repo.Add(ctx, entity.NewSubscription(chatB, animal))
	require.NoError(t, err)

	chats, err := repo.ListSubscribers(ctx, animal)
	require.NoError(t, err)
	require.Equal(t, []int64{chatB, chatA}, chats)

	keys, err := repo.ListByChat(ctx, chatA)
	require.NoError(t, err)
	require.Equal(t, []string{animal}, keys)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Contains(t, all, entity.NewSubscription(chatA, animal))

	removed, err := repo.Remove(ctx, entity.NewSubscription(chatA, animal))
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Remove(ctx, entity.NewSubscription(chatA, animal))
	require.NoError(t, err)
	require.False(t, removed)

	indexed, err := cli.SIsMember(ctx, chatsIndexKey, chatA).Result()
	require.NoError(t, err)
	require.False(t, indexed, "chat without subscriptions leaves the index")

	chats, err = repo.ListSubscribers(ctx, animal)
	require.NoError(t, err)
	require.Equal(t, []int64{chatB}, chats)
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	cli := newTestRedis(t)
	limiter := NewRedisRateLimiter(cli, 2, time.Minute)
	ctx := context.Background()

	key := "test:" + strconv.FormatInt(time.Now().UnixNano(), 36)
	t.Cleanup(func() { cli.Del(ctx, "rate_limit:"+key) })

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	ttl, err := cli.TTL(ctx, "rate_limit:"+key).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
