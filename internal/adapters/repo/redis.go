package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// RedisLedger хранит журнал в Redis set.
type RedisLedger struct {
	client *redis.Client
	key    string
}

var (
	_ domain.Ledger          = (*RedisLedger)(nil)
	_ domain.UnreachableList = (*RedisUnreachable)(nil)
)

// NewRedisLedger создаёт журнал с ключами под prefix.
func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{client: client, key: prefix + ":ledger"}
}

func ledgerMember(recipientID, meetingID string) string {
	return recipientID + "|" + meetingID
}

// Has реализует domain.Ledger.
func (l *RedisLedger) Has(ctx context.Context, recipientID, meetingID string) (bool, error) {
	start := time.Now()
	ok, err := l.client.SIsMember(ctx, l.key, ledgerMember(recipientID, meetingID)).Result()
	metrics.ObserveNetworkRequest("redis", "sismember", l.key, start, err)
	return ok, err
}

// Add реализует domain.Ledger.
func (l *RedisLedger) Add(ctx context.Context, entry domain.LedgerEntry) error {
	start := time.Now()
	err := l.client.SAdd(ctx, l.key, ledgerMember(entry.RecipientID, entry.MeetingID)).Err()
	metrics.ObserveNetworkRequest("redis", "sadd", l.key, start, err)
	return err
}

// RedisUnreachable хранит список недоступных номеров: hash для проверки
// дубликатов и list для порядка добавления.
type RedisUnreachable struct {
	client   *redis.Client
	indexKey string
	listKey  string
}

// NewRedisUnreachable создаёт список с ключами под prefix.
func NewRedisUnreachable(client *redis.Client, prefix string) *RedisUnreachable {
	return &RedisUnreachable{client: client, indexKey: prefix + ":unreachable:index", listKey: prefix + ":unreachable"}
}

// Add добавляет номер, если его ещё нет. Если запись в список не удалась,
// номер убирается из индекса, чтобы следующий Add мог повторить попытку.
func (u *RedisUnreachable) Add(ctx context.Context, entry domain.UnreachableEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}
	start := time.Now()
	added, err := u.client.HSetNX(ctx, u.indexKey, entry.PhoneNumber, entry.Title).Result()
	metrics.ObserveNetworkRequest("redis", "hsetnx", u.indexKey, start, err)
	if err != nil || !added {
		return false, err
	}
	start = time.Now()
	err = u.client.RPush(ctx, u.listKey, payload).Err()
	metrics.ObserveNetworkRequest("redis", "rpush", u.listKey, start, err)
	if err != nil {
		if delErr := u.client.HDel(ctx, u.indexKey, entry.PhoneNumber).Err(); delErr != nil {
			return false, errors.Join(err, fmt.Errorf("rollback index: %w", delErr))
		}
		return false, err
	}
	return true, nil
}

// List возвращает номера в порядке добавления.
func (u *RedisUnreachable) List(ctx context.Context) ([]domain.UnreachableEntry, error) {
	start := time.Now()
	raw, err := u.client.LRange(ctx, u.listKey, 0, -1).Result()
	metrics.ObserveNetworkRequest("redis", "lrange", u.listKey, start, err)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UnreachableEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.UnreachableEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear удаляет оба ключа.
func (u *RedisUnreachable) Clear(ctx context.Context) error {
	start := time.Now()
	err := u.client.Del(ctx, u.indexKey, u.listKey).Err()
	metrics.ObserveNetworkRequest("redis", "del", u.listKey, start, err)
	return err
}
