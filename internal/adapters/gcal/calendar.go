package gcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// ClientSource выдаёт авторизованный HTTP-клиент.
type ClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// Calendar читает встречи из Google Calendar.
type Calendar struct {
	clients    ClientSource
	calendarID string
	opts       []option.ClientOption
}

var _ domain.CalendarSource = (*Calendar)(nil)

// NewCalendar создаёт источник встреч. opts дополняют HTTP-клиента (например, endpoint).
func NewCalendar(clients ClientSource, calendarID string, opts ...option.ClientOption) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Calendar{clients: clients, calendarID: calendarID, opts: opts}
}

// Upcoming возвращает одиночные события окна, отсортированные по началу.
func (c *Calendar) Upcoming(ctx context.Context, from, to time.Time) ([]domain.MeetingRecord, error) {
	httpClient, err := c.clients.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	var out []domain.MeetingRecord
	start := time.Now()
	err = svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			for _, ev := range page.Items {
				if ev == nil || ev.Status == "cancelled" {
					continue
				}
				out = append(out, toMeeting(ev))
			}
			return nil
		})
	metrics.ObserveNetworkRequest("google_calendar", "events_list", c.calendarID, start, err)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func toMeeting(ev *calendar.Event) domain.MeetingRecord {
	m := domain.MeetingRecord{ID: ev.Id, Title: ev.Summary, Description: ev.Description}
	if ev.Start != nil {
		m.Start = ev.Start.DateTime
		if m.Start == "" {
			m.Start = ev.Start.Date
		}
	}
	return m
}
