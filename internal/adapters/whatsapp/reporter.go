package whatsapp

import (
	"context"

	"conquerx-notifier/internal/adapters/telegram"
	"conquerx-notifier/internal/domain"
)

// reportLimit ограничивает длину одного сообщения оператору.
const reportLimit = 4000

// Sender отправляет текст по JID.
type Sender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// OperatorReporter отправляет отчёты оператору в WhatsApp.
type OperatorReporter struct {
	sender   Sender
	operator string
}

var _ domain.Reporter = (*OperatorReporter)(nil)

// NewOperatorReporter создаёт репортер для JID оператора.
func NewOperatorReporter(sender Sender, operatorJID string) *OperatorReporter {
	return &OperatorReporter{sender: sender, operator: operatorJID}
}

// Report отправляет текст, при необходимости несколькими сообщениями.
func (r *OperatorReporter) Report(ctx context.Context, text string) error {
	for _, part := range telegram.SplitMessage(text, reportLimit) {
		if err := r.sender.Send(ctx, r.operator, part); err != nil {
			return err
		}
	}
	return nil
}
