package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS notify_ledger (
	recipient_id TEXT NOT NULL,
	meeting_id   TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (recipient_id, meeting_id)
);
CREATE TABLE IF NOT EXISTS notify_unreachable (
	phone_number TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres реализует журнал и список недоступных номеров на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.Ledger          = (*Postgres)(nil)
	_ domain.UnreachableList = (*PostgresUnreachable)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, postgresSchema)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "notify", start, err)
	if err != nil {
		return fmt.Errorf("создание схемы: %w", err)
	}
	return nil
}

// Has реализует domain.Ledger.
func (p *Postgres) Has(ctx context.Context, recipientID, meetingID string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM notify_ledger WHERE recipient_id=$1 AND meeting_id=$2)`, recipientID, meetingID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "ledger_has", "notify_ledger", start, err)
	return exists, err
}

// Add реализует domain.Ledger.
func (p *Postgres) Add(ctx context.Context, entry domain.LedgerEntry) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO notify_ledger (recipient_id, meeting_id)
VALUES ($1, $2)
ON CONFLICT (recipient_id, meeting_id) DO NOTHING
`, entry.RecipientID, entry.MeetingID)
	metrics.ObserveNetworkRequest("postgres", "ledger_add", "notify_ledger", start, err)
	return err
}

// Unreachable возвращает список недоступных номеров в той же БД.
func (p *Postgres) Unreachable() *PostgresUnreachable {
	return &PostgresUnreachable{pg: p}
}

// PostgresUnreachable реализует domain.UnreachableList.
type PostgresUnreachable struct {
	pg *Postgres
}

// Add добавляет номер, если его ещё нет.
func (u *PostgresUnreachable) Add(ctx context.Context, entry domain.UnreachableEntry) (bool, error) {
	ctx, cancel := u.pg.connCtx(ctx)
	defer cancel()
	start := time.Now()
	res, err := u.pg.pool.Exec(ctx, `
INSERT INTO notify_unreachable (phone_number, title)
VALUES ($1, $2)
ON CONFLICT (phone_number) DO NOTHING
`, entry.PhoneNumber, entry.Title)
	metrics.ObserveNetworkRequest("postgres", "unreachable_add", "notify_unreachable", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

// List возвращает номера в порядке добавления.
func (u *PostgresUnreachable) List(ctx context.Context) ([]domain.UnreachableEntry, error) {
	ctx, cancel := u.pg.connCtx(ctx)
	defer cancel()
	start := time.Now()
	rows, err := u.pg.pool.Query(ctx, `SELECT phone_number, title FROM notify_unreachable ORDER BY created_at, phone_number`)
	metrics.ObserveNetworkRequest("postgres", "unreachable_list", "notify_unreachable", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UnreachableEntry
	for rows.Next() {
		var e domain.UnreachableEntry
		if err := rows.Scan(&e.PhoneNumber, &e.Title); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear удаляет все записи.
func (u *PostgresUnreachable) Clear(ctx context.Context) error {
	ctx, cancel := u.pg.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := u.pg.pool.Exec(ctx, `DELETE FROM notify_unreachable`)
	metrics.ObserveNetworkRequest("postgres", "unreachable_clear", "notify_unreachable", start, err)
	return err
}
