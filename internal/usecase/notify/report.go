package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conquerx-notifier/internal/domain"
)

// NoEventsMessage отправляется оператору, если рассылать нечего.
const NoEventsMessage = "No se encontraron eventos."

// FormatReport формирует отчёт о прогоне. Каждая секция уходит оператору
// отдельным сообщением.
func FormatReport(s domain.Summary, events int) []string {
	var sections []string

	if events == 0 {
		sections = append(sections, NoEventsMessage)
	}

	if len(s.Sent) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Mensajes enviados a %d próximo(s) evento(s).\n\n", len(s.Sent))
		for _, user := range s.Sent {
			b.WriteString("Mensaje enviado a " + user + "\n")
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	if len(s.AlreadyNotified) > 0 {
		sections = append(sections, "No se enviaron mensajes a los siguientes números porque ya se les envió previamente:\n\n"+strings.Join(s.AlreadyNotified, "\n"))
	}

	if len(s.Failed) > 0 {
		sections = append(sections, "No se pudo enviar el mensaje a:\n"+strings.Join(s.Failed, "\n"))
	}

	if len(s.Unreachable) > 0 {
		lines := make([]string, 0, len(s.Unreachable))
		for _, entry := range s.Unreachable {
			lines = append(lines, entry.PhoneNumber+" - "+entry.Title)
		}
		sections = append(sections, "Números no registrados en WhatsApp:\n"+strings.Join(lines, "\n"))
	}

	if len(s.Invalid) > 0 {
		sections = append(sections, "Reuniones no válidas:\n"+strings.Join(s.Invalid, "\n"))
	}

	if len(s.Errors) > 0 {
		sections = append(sections, "Reuniones que no se pudieron procesar:\n"+strings.Join(s.Errors, "\n"))
	}

	return sections
}

// FormatFailure формирует уведомление об ошибке прогона.
func FormatFailure(err error) string {
	return "Error al chequear eventos: " + err.Error()
}

// MultiReporter рассылает отчёт всем получателям и объединяет ошибки.
type MultiReporter []domain.Reporter

// Report реализует domain.Reporter.
func (m MultiReporter) Report(ctx context.Context, text string) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
