package meeting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/config"
	"conquerx-notifier/internal/usecase/extract"
	"conquerx-notifier/internal/usecase/resolve"
)

type stubChecker struct {
	reach  domain.Reachability
	err    error
	called []string
}

func (s *stubChecker) CheckReachable(_ context.Context, phone string) (domain.Reachability, error) {
	s.called = append(s.called, phone)
	return s.reach, s.err
}

func newNormalizer(t *testing.T, server string) *Normalizer {
	t.Helper()
	catalog := config.DefaultCatalog()
	resolver := resolve.NewResolver(server)
	strategy, err := extract.NewLeadInStrategy(catalog.LeadIns, resolver)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	loc, err := time.LoadLocation(server)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return NewNormalizer(strategy, resolver, catalog, loc)
}

func TestValidatorRejectsCancelled(t *testing.T) {
	n := newNormalizer(t, "America/Argentina/Buenos_Aires")
	m := domain.MeetingRecord{
		ID:          "evt-1",
		Title:       "Cancelado: Formación en Inversión: Jane",
		Description: "Enviar mensajes de texto a: +54 9 11 2345 6789",
		Start:       "2025-03-14T10:00:00-03:00",
	}
	if n.IsValid(m) {
		t.Fatalf("отменённая встреча не должна проходить валидацию")
	}
	checker := &stubChecker{reach: domain.Reachability{Exists: true, ID: "5491123456789@s.whatsapp.net"}}
	if _, err := n.Normalize(context.Background(), m, "Matias", checker); !errors.Is(err, ErrInvalidMeeting) {
		t.Fatalf("ожидали ErrInvalidMeeting, получили %v", err)
	}
	if len(checker.called) != 0 {
		t.Fatalf("проверка номера не должна вызываться для невалидной встречи")
	}
}

func TestValidatorRules(t *testing.T) {
	n := newNormalizer(t, "UTC")
	phone := "Enviar mensajes de WhatsApp a +57 300 123 4567"
	cases := []struct {
		title, description string
		valid              bool
	}{
		{"Ciberseguridad: Luis", phone, true},
		{"Luis: Inteligencia Artificial", phone, true},
		{"Reunión interna", phone, false},
		{"Ciberseguridad: Luis", "sin número", false},
		{"  Cancelado: Ciberseguridad", phone, false},
	}
	for _, tc := range cases {
		got := n.IsValid(domain.MeetingRecord{Title: tc.title, Description: tc.description})
		if got != tc.valid {
			t.Fatalf("%q: ожидали %v, получили %v", tc.title, tc.valid, got)
		}
	}
}

func TestNormalizeArgentina(t *testing.T) {
	n := newNormalizer(t, "America/Argentina/Buenos_Aires")
	m := domain.MeetingRecord{
		ID:          "evt-ana",
		Title:       "Desarrollo Full-Stack: Ana",
		Description: "Enviar mensajes de texto a: +54 9 11 2345 6789",
		Start:       "2025-03-14T10:00:00-03:00",
	}
	checker := &stubChecker{reach: domain.Reachability{Exists: true, ID: "5491123456789@s.whatsapp.net"}}
	ev, err := n.Normalize(context.Background(), m, "Matias", checker)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.Country != "Argentina" || ev.PhoneNumber != "+5491123456789" || ev.AttendeeName != "Ana" || ev.Category != "Desarrollo" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Day != "14" || ev.Weekday != "viernes" || ev.LocalTime != "10:00" {
		t.Fatalf("unexpected local time %s %s %s", ev.Day, ev.Weekday, ev.LocalTime)
	}
	if ev.RecipientID != "5491123456789@s.whatsapp.net" || ev.MeetingID != "evt-ana" {
		t.Fatalf("unexpected ids %+v", ev)
	}
	if !strings.HasPrefix(ev.MessageBody, "Hola Ana 👋🏻, soy Matias") || !strings.Contains(ev.MessageBody, "Full Stack") {
		t.Fatalf("unexpected greeting %q", ev.MessageBody)
	}
	if len(checker.called) != 1 || checker.called[0] != "+5491123456789" {
		t.Fatalf("unexpected reachability calls %v", checker.called)
	}
}

func TestNormalizeCrossesMidnight(t *testing.T) {
	n := newNormalizer(t, "America/Lima")
	m := domain.MeetingRecord{
		ID:          "evt-late",
		Title:       "sofía: Formación en Inversión",
		Description: "Enviar mensajes de texto a: +54 9 11 2345 6789",
		Start:       "2025-03-14T22:30:00-05:00",
	}
	prepared, err := n.Prepare(m)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if prepared.Start.Day() != 14 || prepared.Start.Weekday() != time.Friday {
		t.Fatalf("unexpected original start %v", prepared.Start)
	}
	ev, err := n.Finalize(prepared, "Matias", domain.Reachability{Exists: true, ID: "5491123456789@s.whatsapp.net"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.Day != "15" || ev.Weekday != "sábado" || ev.LocalTime != "00:30" {
		t.Fatalf("ожидали 15 sábado 00:30, получили %s %s %s", ev.Day, ev.Weekday, ev.LocalTime)
	}
	if ev.AttendeeName != "Sofía" || ev.Category != "Formación" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestNormalizeUnreachable(t *testing.T) {
	n := newNormalizer(t, "UTC")
	m := domain.MeetingRecord{
		ID:          "evt-2",
		Title:       "Pedro: Ciberseguridad",
		Description: "Enviar mensajes de texto a: +56 9 8765 4321",
		Start:       "2025-03-14T10:00:00Z",
	}
	checker := &stubChecker{reach: domain.Reachability{}}
	if _, err := n.Normalize(context.Background(), m, "Matias", checker); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("ожидали ErrUnreachable, получили %v", err)
	}

	failing := &stubChecker{err: errors.New("socket closed")}
	_, err := n.Normalize(context.Background(), m, "Matias", failing)
	if err == nil || errors.Is(err, ErrUnreachable) || errors.Is(err, ErrInvalidMeeting) {
		t.Fatalf("ожидали ошибку транспорта, получили %v", err)
	}
}

func TestPrepareMalformedStart(t *testing.T) {
	n := newNormalizer(t, "UTC")
	m := domain.MeetingRecord{
		Title:       "Pedro: Ciberseguridad",
		Description: "Enviar mensajes de texto a: +56 9 8765 4321",
		Start:       "mañana a las diez",
	}
	_, err := n.Prepare(m)
	if err == nil || errors.Is(err, ErrInvalidMeeting) {
		t.Fatalf("ожидали ошибку разбора времени, получили %v", err)
	}
}

func TestPrepareDateOnlyUsesServerZone(t *testing.T) {
	n := newNormalizer(t, "America/Argentina/Buenos_Aires")
	m := domain.MeetingRecord{
		Title:       "MARTA: Inteligencia Artificial",
		Description: "Enviar mensajes de WhatsApp a: +1 305 555 0100",
		Start:       "2025-03-14",
	}
	prepared, err := n.Prepare(m)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	ev, err := n.Finalize(prepared, "Matias", domain.Reachability{Exists: true, ID: "13055550100@s.whatsapp.net"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.Country != "Canada/EEUU" || ev.Day != "13" || ev.LocalTime != "23:00" || ev.Weekday != "jueves" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.AttendeeName != "Marta" {
		t.Fatalf("unexpected name %q", ev.AttendeeName)
	}
}
