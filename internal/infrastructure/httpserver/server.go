package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"animal-watch-bot/internal/domain/port"
)

const (
	defaultAlertsLimit = 20
	maxAlertsLimit     = 200
)

// Server отдаёт служебные ручки: проверку живости, метрики и историю уведомлений.
type Server struct {
	addr   string
	alerts port.AlertRepository
	log    zerolog.Logger
	server *http.Server
}

func NewServer(addr string, alerts port.AlertRepository, log zerolog.Logger) *Server {
	s := &Server{addr: addr, alerts: alerts, log: log}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router собирает маршруты сервера.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/alerts", s.handleAlerts)
	return r
}

// Start блокируется до остановки сервера.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAlertsLimit)
	}

	alerts, err := s.alerts.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("load alerts")
		http.Error(w, "failed to load alerts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(alerts); err != nil {
		s.log.Warn().Err(err).Msg("encode alerts")
	}
}
