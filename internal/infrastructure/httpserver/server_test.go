package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/infrastructure/storage"
)

type failingAlerts struct{}

func (failingAlerts) Save(ctx context.Context, alert *entity.Alert) error { return nil }
func (failingAlerts) Recent(ctx context.Context, limit int) ([]*entity.Alert, error) {
	return nil, errors.New("db is down")
}

func TestServer_Health(t *testing.T) {
	srv := NewServer(":0", storage.NewMemoryAlertRepository(10), zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := NewServer(":0", storage.NewMemoryAlertRepository(10), zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_Alerts(t *testing.T) {
	repo := storage.NewMemoryAlertRepository(10)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, entity.NewAlert("bird", []string{"person"}, 1)))
	require.NoError(t, repo.Save(ctx, entity.NewAlert("bear", []string{"dog"}, 2)))

	srv := NewServer(":0", repo, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []entity.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "bear", got[0].AnimalKey)
	require.Equal(t, []string{"dog"}, got[0].Labels)
}

func TestServer_AlertsErrors(t *testing.T) {
	srv := NewServer(":0", storage.NewMemoryAlertRepository(10), zerolog.Nop())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	srv = NewServer(":0", failingAlerts{}, zerolog.Nop())
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
