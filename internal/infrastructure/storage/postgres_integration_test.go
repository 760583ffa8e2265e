//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/entity"
)

func TestPostgresAlertRepository_SaveRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPgxPool(ctx, url, 2)
	require.NoError(t, err)
	defer pool.Close()

	repo, err := NewPostgresAlertRepository(ctx, pool)
	require.NoError(t, err)

	older := entity.NewAlert("bird", []string{"person"}, 1)
	older.CreatedAt = time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	newer := entity.NewAlert("bear", []string{"dog", "cat"}, 3)
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM alerts WHERE id::text = ANY($1)", []string{older.ID, newer.ID})
	})

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))
	// повторное сохранение того же уведомления не дублирует запись
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, newer.ID, got[0].ID)
	require.Equal(t, []string{"dog", "cat"}, got[0].Labels)
	require.Equal(t, 3, got[0].Chats)
	require.Equal(t, older.ID, got[1].ID)
	require.True(t, older.CreatedAt.Equal(got[1].CreatedAt))
}
