package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"conquerx-notifier/internal/domain"
)

// Server оборачивает chi.Router с базовыми middlewares.
type Server struct {
	Router chi.Router
	log    zerolog.Logger
	queue  domain.RunQueue
	srv    *http.Server
}

// NewServer создаёт HTTP сервер. queue может быть nil, тогда запуск через API недоступен.
func NewServer(logger zerolog.Logger, queue domain.RunQueue) *Server {
	s := &Server{log: logger.With().Str("component", "http").Logger(), queue: queue}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.enqueueRun)
	})
	s.Router = r
	return s
}

func (s *Server) enqueueRun(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		WriteError(w, http.StatusServiceUnavailable, errors.New("очередь запусков не настроена"))
		return
	}
	job := domain.RunJob{
		ID:          uuid.NewString(),
		Cause:       domain.RunCauseHTTP,
		RequestedBy: RequestID(r),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(r.Context(), job); err != nil {
		s.log.Error().Err(err).Msg("enqueue run failed")
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info().Str("job_id", job.ID).Msg("run enqueued")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "job_id": job.ID})
}

// Start запускает http.Server и блокируется до его остановки.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("HTTP сервер запущен")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown позволяет корректно завершить работу.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// RequestID возвращает идентификатор запроса, выставленный middleware.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// WriteError пишет ошибку в JSON.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
