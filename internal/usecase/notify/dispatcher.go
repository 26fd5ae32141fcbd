package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// Sender отправляет текст получателю.
type Sender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// Dispatcher отправляет сценарий из трёх сообщений по каждому событию,
// пропуская пары получатель/встреча, уже записанные в журнал.
type Dispatcher struct {
	sender   Sender
	ledger   domain.Ledger
	messages domain.Messages
	agnostic map[string]struct{}
	logger   zerolog.Logger
}

// NewDispatcher создаёт диспетчер по каталогу сообщений.
func NewDispatcher(sender Sender, ledger domain.Ledger, catalog domain.Catalog, logger zerolog.Logger) *Dispatcher {
	agnostic := make(map[string]struct{}, len(catalog.AgnosticCountries))
	for _, c := range catalog.AgnosticCountries {
		agnostic[c] = struct{}{}
	}
	return &Dispatcher{
		sender:   sender,
		ledger:   ledger,
		messages: catalog.Messages,
		agnostic: agnostic,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Script возвращает сообщения для события в порядке отправки.
func (d *Dispatcher) Script(ev domain.NormalizedEvent) []string {
	confirmation := d.messages.ConfirmationAgnostic
	if _, ok := d.agnostic[ev.Country]; !ok {
		confirmation = strings.NewReplacer(
			"{day}", ev.Day,
			"{weekday}", ev.Weekday,
			"{time}", ev.LocalTime,
			"{country}", ev.Country,
		).Replace(d.messages.Confirmation)
	}
	return []string{ev.MessageBody, confirmation, d.messages.Closing}
}

// Run обрабатывает события по порядку. Заполняет Sent, AlreadyNotified и Failed.
func (d *Dispatcher) Run(ctx context.Context, events []domain.NormalizedEvent) domain.Summary {
	var summary domain.Summary
	for _, ev := range events {
		user := recipientUser(ev.RecipientID)
		log := d.logger.With().Str("title", ev.Title).Str("recipient", user).Str("meeting_id", ev.MeetingID).Logger()

		notified, err := d.ledger.Has(ctx, ev.RecipientID, ev.MeetingID)
		if err != nil {
			log.Error().Err(err).Msg("ledger lookup failed, skipping")
			summary.Failed = append(summary.Failed, user)
			metrics.IncMeeting(metrics.OutcomeFailed)
			continue
		}
		if notified {
			log.Info().Msg("already notified")
			summary.AlreadyNotified = append(summary.AlreadyNotified, user)
			metrics.IncMeeting(metrics.OutcomeAlreadyNotified)
			continue
		}

		if !d.send(ctx, log, ev) {
			summary.Failed = append(summary.Failed, user)
			metrics.IncMeeting(metrics.OutcomeFailed)
			continue
		}
		summary.Sent = append(summary.Sent, user)
		metrics.IncMeeting(metrics.OutcomeSent)
	}
	return summary
}

// send возвращает false, если не ушло ни одного сообщения. После первого
// успешного сообщения пара записывается в журнал.
func (d *Dispatcher) send(ctx context.Context, log zerolog.Logger, ev domain.NormalizedEvent) bool {
	started := false
	for i, text := range d.Script(ev) {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := d.sender.Send(ctx, ev.RecipientID, text); err != nil {
			metrics.SendErrors.Inc()
			log.Error().Err(err).Int("message", i+1).Msg("send failed")
			break
		}
		metrics.MessagesSent.Inc()
		if !started {
			started = true
			if err := d.ledger.Add(ctx, domain.LedgerEntry{RecipientID: ev.RecipientID, MeetingID: ev.MeetingID}); err != nil {
				log.Error().Err(err).Msg("ledger write failed")
			}
		}
	}
	return started
}

func recipientUser(recipientID string) string {
	user, _, _ := strings.Cut(recipientID, "@")
	return user
}
