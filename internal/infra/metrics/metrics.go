package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Исходы обработки встречи.
const (
	OutcomeSent            = "sent"
	OutcomeAlreadyNotified = "already_notified"
	OutcomeUnreachable     = "unreachable"
	OutcomeInvalid         = "invalid"
	OutcomeFailed          = "failed"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_runs_total",
		Help: "Количество прогонов рассылки",
	}, []string{"cause", "status"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "notify_run_duration_seconds",
		Help:    "Длительность прогона рассылки",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
	})

	MeetingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_meetings_total",
		Help: "Встречи по исходу обработки",
	}, []string{"outcome"})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_messages_sent_total",
		Help: "Отправленные сообщения мессенджера",
	})

	SendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_send_errors_total",
		Help: "Ошибки отправки сообщений",
	})

	QueueJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_queue_jobs_total",
		Help: "Задачи очереди прогонов",
	}, []string{"action"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RunsTotal,
		RunDuration,
		MeetingsTotal,
		MessagesSent,
		SendErrors,
		QueueJobs,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveRun фиксирует завершение прогона.
func ObserveRun(cause string, start time.Time, err error) {
	if cause == "" {
		cause = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	RunsTotal.WithLabelValues(cause, status).Inc()
	RunDuration.Observe(time.Since(start).Seconds())
}

// IncMeeting увеличивает счётчик встреч с указанным исходом.
func IncMeeting(outcome string) {
	MeetingsTotal.WithLabelValues(outcome).Inc()
}

// AddMeetings увеличивает счётчик встреч на n.
func AddMeetings(outcome string, n int) {
	if n <= 0 {
		return
	}
	MeetingsTotal.WithLabelValues(outcome).Add(float64(n))
}
