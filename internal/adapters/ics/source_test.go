package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var feed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//conquerx//notifier test//EN",
	"BEGIN:VEVENT",
	"UID:single-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250314T130000Z",
	"DTEND:20250314T133000Z",
	"SUMMARY:Ana: Desarrollo Full-Stack",
	`DESCRIPTION:Enviar mensajes de texto a: +54 9 11 2345 6789\nGracias\, Ana`,
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART;TZID=America/Argentina/Buenos_Aires:20250303T100000",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE;TZID=America/Argentina/Buenos_Aires:20250317T100000",
	"SUMMARY:Luis: Ciberseguridad",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:cancelled-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250315T130000Z",
	"STATUS:CANCELLED",
	"SUMMARY:Cancelado: Ciberseguridad",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:old-1",
	"DTSTAMP:20250101T000000Z",
	"DTSTART:20250201T130000Z",
	"SUMMARY:Antigua",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func window(t *testing.T) (time.Time, time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	to := time.Date(2025, 3, 17, 23, 59, 59, 0, loc)
	return from, to, loc
}

func TestExpandWindowAndRecurrence(t *testing.T) {
	from, to, loc := window(t)
	meetings, err := Expand([]byte(feed), from, to, loc)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(meetings) != 2 {
		t.Fatalf("ожидали 2 встречи, получили %d: %+v", len(meetings), meetings)
	}
	weekly := meetings[0]
	if weekly.ID != "weekly-1_20250310T130000Z" || weekly.Title != "Luis: Ciberseguridad" {
		t.Fatalf("unexpected recurring instance %+v", weekly)
	}
	if weekly.Start != "2025-03-10T10:00:00-03:00" {
		t.Fatalf("unexpected start %q", weekly.Start)
	}
	single := meetings[1]
	if single.ID != "single-1" || single.Start != "2025-03-14T13:00:00Z" {
		t.Fatalf("unexpected single event %+v", single)
	}
	if single.Description != "Enviar mensajes de texto a: +54 9 11 2345 6789\nGracias, Ana" {
		t.Fatalf("unexpected description %q", single.Description)
	}
}

func TestSourceUpcomingFetchesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	from, to, loc := window(t)
	meetings, err := NewSource(srv.URL, srv.Client(), loc).Upcoming(context.Background(), from, to)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(meetings) != 2 {
		t.Fatalf("ожидали 2 встречи, получили %d", len(meetings))
	}
}

func TestSourceUpcomingBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	from, to, loc := window(t)
	if _, err := NewSource(srv.URL, nil, loc).Upcoming(context.Background(), from, to); err == nil {
		t.Fatalf("ожидали ошибку статуса")
	}
}
