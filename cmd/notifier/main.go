package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"conquerx-notifier/internal/adapters/bot"
	"conquerx-notifier/internal/adapters/gcal"
	"conquerx-notifier/internal/adapters/ics"
	"conquerx-notifier/internal/adapters/repo"
	"conquerx-notifier/internal/adapters/telegram"
	"conquerx-notifier/internal/adapters/whatsapp"
	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/config"
	"conquerx-notifier/internal/infra/db"
	httpserver "conquerx-notifier/internal/infra/http"
	"conquerx-notifier/internal/infra/log"
	"conquerx-notifier/internal/infra/metrics"
	"conquerx-notifier/internal/infra/queue"
	"conquerx-notifier/internal/usecase/extract"
	"conquerx-notifier/internal/usecase/meeting"
	"conquerx-notifier/internal/usecase/notify"
	"conquerx-notifier/internal/usecase/resolve"
)

const workerBuffer = 8

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось загрузить каталог")
	}
	resolver := resolve.NewResolver(cfg.TZ)
	contacts, err := extract.NewLeadInStrategy(catalog.LeadIns, resolver)
	if err != nil {
		logger.Fatal().Err(err).Msg("некорректные вводные фразы каталога")
	}
	normalizer := meeting.NewNormalizer(contacts, resolver, catalog, loc)

	stores, err := repo.Open(ctx, repo.StoreConfig{
		Backend:         repo.Backend(cfg.Store.Backend),
		LedgerFile:      cfg.Store.LedgerFile,
		UnreachableFile: cfg.Store.UnreachableFile,
		RedisAddr:       cfg.RedisAddr,
		RedisPrefix:     cfg.RedisPrefix,
		PGDSN:           cfg.PGDSN,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось открыть хранилище")
	}
	defer stores.Close()

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("PG_DSN обязателен для хранения сессии WhatsApp")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()
	sqlDB := db.SQLDB(pool)
	defer sqlDB.Close()

	wa, err := whatsapp.Open(ctx, sqlDB, logger, os.Stdout)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось открыть клиента WhatsApp")
	}

	var (
		calendar domain.CalendarSource
		profile  domain.ProfileSource
		auth     bot.Authorizer
	)
	switch cfg.Calendar.Source {
	case "ics":
		if cfg.Calendar.ICSURL == "" {
			logger.Fatal().Msg("ICS_URL обязателен для CALENDAR_SOURCE=ics")
		}
		calendar = ics.NewSource(cfg.Calendar.ICSURL, nil, loc)
	default:
		oauthCfg, err := gcal.LoadConfig(cfg.Google.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось прочитать учётные данные Google")
		}
		googleAuth := gcal.NewAuth(oauthCfg, gcal.NewTokenStore(cfg.Google.TokenFile))
		calendar = gcal.NewCalendar(googleAuth, cfg.Google.CalendarID)
		profile = gcal.NewProfile(googleAuth)
		auth = googleAuth
	}

	reporters := notify.MultiReporter{whatsapp.NewOperatorReporter(wa, cfg.WhatsApp.OperatorJID)}
	if cfg.Telegram.Token != "" && cfg.Telegram.OperatorChatID != 0 {
		mirror, err := telegram.NewMirrorFromToken(cfg.Telegram.Token, cfg.Telegram.OperatorChatID)
		if err != nil {
			logger.Error().Err(err).Msg("зеркало Telegram отключено")
		} else {
			reporters = append(reporters, mirror)
		}
	}

	service := notify.NewService(notify.Deps{
		Calendar:    calendar,
		Profile:     profile,
		Messenger:   wa,
		Reporter:    reporters,
		Ledger:      stores.Ledger,
		Unreachable: stores.Unreachable,
		Normalizer:  normalizer,
		Catalog:     catalog,
	}, notify.Options{
		Location:       loc,
		LookaheadDays:  cfg.Calendar.LookaheadDays,
		SenderFallback: cfg.Google.SenderFallback,
	}, logger)

	worker := bot.NewWorker(service, workerBuffer, logger)
	go func() { _ = worker.Run(ctx) }()

	handler := bot.NewHandler(logger, reporters, worker, auth, cfg.WhatsApp.OperatorJID, cfg.WhatsApp.TriggerWord)
	wa.OnMessage(handler.HandleMessage)
	wa.OnConnected(handler.HandleConnected)

	var runQueue domain.RunQueue
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		runQueue = queue.NewRedisRunQueue(rdb, cfg.Queues.Runs)
		go func() {
			if err := worker.Consume(ctx, runQueue); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("чтение очереди остановлено")
			}
		}()
	}

	srv := httpserver.NewServer(logger, runQueue)
	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	if err := wa.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к WhatsApp")
	}
	logger.Info().Str("calendar", cfg.Calendar.Source).Str("store", cfg.Store.Backend).Msg("бот запущен")

	select {
	case <-ctx.Done():
		logger.Info().Msg("остановка бота")
	case <-wa.LoggedOut():
		logger.Error().Err(whatsapp.ErrLoggedOut).Msg("остановка бота")
	}
	shutdown(logger, wa, srv)
}

func shutdown(logger zerolog.Logger, wa *whatsapp.Client, srv *httpserver.Server) {
	wa.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP сервер не остановился корректно")
	}
}
