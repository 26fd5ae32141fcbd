package domain

import (
	"context"
	"time"
)

// CalendarSource возвращает встречи в заданном окне.
type CalendarSource interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]MeetingRecord, error)
}

// ProfileSource возвращает отображаемое имя отправителя.
type ProfileSource interface {
	DisplayName(ctx context.Context) (string, error)
}

// Messenger проверяет номера и отправляет сообщения.
type Messenger interface {
	CheckReachable(ctx context.Context, phoneNumber string) (Reachability, error)
	Send(ctx context.Context, recipientID, text string) error
}

// Reporter доставляет служебные сообщения оператору.
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// Ledger хранит пары получатель/встреча, которым уже отправлены уведомления.
// Add не проверяет дубликаты: вызывающий обязан сначала вызвать Has.
type Ledger interface {
	Has(ctx context.Context, recipientID, meetingID string) (bool, error)
	Add(ctx context.Context, entry LedgerEntry) error
}

// UnreachableList хранит номера, не найденные в мессенджере за текущий прогон.
type UnreachableList interface {
	// Add добавляет запись, если номера ещё нет в списке; возвращает true при добавлении.
	Add(ctx context.Context, entry UnreachableEntry) (bool, error)
	List(ctx context.Context) ([]UnreachableEntry, error)
	Clear(ctx context.Context) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}
