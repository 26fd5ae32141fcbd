package gcal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type staticClients struct{}

func (staticClients) HTTPClient(context.Context) (*http.Client, error) {
	return http.DefaultClient, nil
}

type missingToken struct{}

func (missingToken) HTTPClient(context.Context) (*http.Client, error) { return nil, ErrNoToken }

func TestCalendarUpcomingMapsEvents(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"e1","summary":"Ana: Desarrollo Full-Stack","description":"Enviar mensajes de texto a: +54 9 11 2345 6789","start":{"dateTime":"2025-03-14T10:00:00-03:00"}},
			{"id":"e2","summary":"Feriado","start":{"date":"2025-03-15"}},
			{"id":"e3","status":"cancelled"}
		]}`))
	}))
	defer srv.Close()

	cal := NewCalendar(staticClients{}, "", option.WithEndpoint(srv.URL+"/"))
	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	meetings, err := cal.Upcoming(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(meetings) != 2 {
		t.Fatalf("ожидали 2 встречи, получили %d", len(meetings))
	}
	if meetings[0].ID != "e1" || meetings[0].Start != "2025-03-14T10:00:00-03:00" || !strings.Contains(meetings[0].Description, "+54 9 11") {
		t.Fatalf("unexpected first meeting %+v", meetings[0])
	}
	if meetings[1].Start != "2025-03-15" {
		t.Fatalf("ожидали дату без времени, получили %q", meetings[1].Start)
	}
	for _, want := range []string{"singleEvents=true", "orderBy=startTime", "timeMin=2025-03-10T12"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query %q не содержит %q", query, want)
		}
	}
}

func TestCalendarWithoutToken(t *testing.T) {
	cal := NewCalendar(missingToken{}, "primary")
	if _, err := cal.Upcoming(context.Background(), time.Now(), time.Now()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("ожидали ErrNoToken, получили %v", err)
	}
}

func TestProfileDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resourceName":"people/me","names":[{"givenName":"Lucía","displayName":"Lucía Pérez"}]}`))
	}))
	defer srv.Close()

	name, err := NewProfile(staticClients{}, option.WithEndpoint(srv.URL+"/")).DisplayName(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if name != "Lucía" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if _, err := store.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("ожидали ErrNoToken, получили %v", err)
	}
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := store.Save(tok); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if loaded.RefreshToken != "refresh" {
		t.Fatalf("unexpected token %+v", loaded)
	}

	auth := NewAuth(&oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth"}, Scopes: Scopes}, store)
	if !auth.Authorized() {
		t.Fatalf("ожидали авторизованное состояние")
	}
	if u := auth.AuthURL(); !strings.Contains(u, "access_type=offline") || !strings.Contains(u, "client_id=id") {
		t.Fatalf("unexpected auth url %q", u)
	}
}
