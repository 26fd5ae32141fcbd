package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// Sender описывает часть tgbotapi.BotAPI, нужную зеркалу.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Mirror дублирует отчёты оператора в чат Telegram.
type Mirror struct {
	bot    Sender
	chatID int64
}

var _ domain.Reporter = (*Mirror)(nil)

// NewMirror создаёт зеркало для чата chatID.
func NewMirror(bot Sender, chatID int64) *Mirror {
	return &Mirror{bot: bot, chatID: chatID}
}

// NewMirrorFromToken создаёт клиента Bot API по токену.
func NewMirrorFromToken(token string, chatID int64) (*Mirror, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	return NewMirror(api, chatID), nil
}

// Report отправляет текст, разбивая его на части по лимиту Telegram.
func (m *Mirror) Report(ctx context.Context, text string) error {
	target := strconv.FormatInt(m.chatID, 10)
	for _, part := range SplitMessage(text, MessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(m.chatID, part)
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := m.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", target, start, err)
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}
