package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/entity"
)

func TestMemorySubscriptionRepository_AddRemove(t *testing.T) {
	repo := NewMemorySubscriptionRepository()
	ctx := context.Background()

	added, err := repo.Add(ctx, entity.NewSubscription(10, "bird"))
	require.NoError(t, err)
	require.True(t, added)

	// повторная подписка ничего не меняет
	added, err = repo.Add(ctx, entity.NewSubscription(10, "bird"))
	require.NoError(t, err)
	require.False(t, added)

	_, err = repo.Add(ctx, entity.NewSubscription(10, "bear"))
	require.NoError(t, err)
	_, err = repo.Add(ctx, entity.NewSubscription(20, "bird"))
	require.NoError(t, err)

	keys, err := repo.ListByChat(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"bear", "bird"}, keys)

	chats, err := repo.ListSubscribers(ctx, "bird")
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20}, chats)

	removed, err := repo.Remove(ctx, entity.NewSubscription(10, "bird"))
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Remove(ctx, entity.NewSubscription(10, "bird"))
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = repo.Remove(ctx, entity.NewSubscription(99, "bird"))
	require.NoError(t, err)
	require.False(t, removed)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []entity.Subscription{
		{ChatID: 10, AnimalKey: "bear"},
		{ChatID: 20, AnimalKey: "bird"},
	}, all)
}

func TestMemorySubscriptionRepository_EmptyChat(t *testing.T) {
	repo := NewMemorySubscriptionRepository()
	keys, err := repo.ListByChat(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestMemoryAlertRepository_Ring(t *testing.T) {
	repo := NewMemoryAlertRepository(3)
	ctx := context.Background()

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent)

	var ids []string
	for i := 0; i < 4; i++ {
		a := entity.NewAlert("bear", []string{"person"}, 1)
		ids = append(ids, a.ID)
		require.NoError(t, repo.Save(ctx, a))
	}

	recent, err = repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, ids[3], recent[0].ID)
	require.Equal(t, ids[2], recent[1].ID)
	require.Equal(t, ids[1], recent[2].ID)

	recent, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, ids[3], recent[0].ID)
}
