package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/db"
)

// ErrUnknownBackend возвращается для неизвестного типа хранилища.
var ErrUnknownBackend = errors.New("неизвестный тип хранилища")

// Backend задаёт тип хранилища.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// StoreConfig описывает параметры хранилищ.
type StoreConfig struct {
	Backend         Backend
	LedgerFile      string
	UnreachableFile string
	RedisAddr       string
	RedisPrefix     string
	PGDSN           string
}

// Stores объединяет журнал и список недоступных номеров.
type Stores struct {
	Ledger      domain.Ledger
	Unreachable domain.UnreachableList
	closers     []func()
}

// Close освобождает соединения.
func (s *Stores) Close() {
	for _, c := range s.closers {
		c()
	}
}

// Open открывает выбранное хранилище. Файловые хранилища загружаются сразу.
func Open(ctx context.Context, cfg StoreConfig) (*Stores, error) {
	switch cfg.Backend {
	case BackendFile, "":
		ledger := NewFileLedger(cfg.LedgerFile)
		if err := ledger.Load(); err != nil {
			return nil, err
		}
		unreachable := NewFileUnreachable(cfg.UnreachableFile)
		if err := unreachable.Load(); err != nil {
			return nil, err
		}
		return &Stores{Ledger: ledger, Unreachable: unreachable}, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		return &Stores{
			Ledger:      NewRedisLedger(client, cfg.RedisPrefix),
			Unreachable: NewRedisUnreachable(client, cfg.RedisPrefix),
			closers:     []func(){func() { _ = client.Close() }},
		}, nil
	case BackendPostgres:
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		pg := NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Stores{Ledger: pg, Unreachable: pg.Unreachable(), closers: []func(){pool.Close}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
