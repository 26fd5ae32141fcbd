package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/cache"
	"conquerx-notifier/internal/infra/config"
	"conquerx-notifier/internal/infra/log"
	"conquerx-notifier/internal/infra/metrics"
	"conquerx-notifier/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv).With().Str("component", "scheduler").Logger()

	if cfg.Queues.ScheduleCron == "" {
		logger.Fatal().Msg("scheduler: SCHEDULE_CRON не задан")
	}
	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("scheduler: REDIS_ADDR не задан")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к Redis")
	}

	runs := queue.NewRedisRunQueue(rdb, cfg.Queues.Runs)
	dedup := cache.NewRedis(rdb, cfg.RedisPrefix+":schedule")
	loc := cfg.Location()

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(cfg.Queues.ScheduleCron, func() {
		now := time.Now().In(loc)
		key := now.Truncate(time.Minute).Format("200601021504")
		err := dedup.Once(ctx, key, cfg.Queues.DedupTTL, func() error {
			return runs.Enqueue(ctx, domain.RunJob{Cause: domain.RunCauseScheduled, RequestedAt: now.UTC()})
		})
		if err != nil {
			logger.Error().Err(err).Msg("scheduler: не удалось поставить прогон в очередь")
			return
		}
		logger.Debug().Str("slot", key).Msg("scheduler: слот обработан")
	})
	if err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Queues.ScheduleCron).Msg("scheduler: некорректное расписание")
	}

	c.Start()
	logger.Info().Str("cron", cfg.Queues.ScheduleCron).Str("tz", loc.String()).Msg("scheduler: запущен")
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("scheduler: остановлен")
}
