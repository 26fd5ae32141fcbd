package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// ErrLoggedOut возвращается, если сессия была завершена с телефона.
var ErrLoggedOut = errors.New("whatsapp: сессия завершена, требуется повторная привязка")

// MessageHandler обрабатывает входящее текстовое сообщение.
type MessageHandler func(ctx context.Context, msg domain.InboundMessage)

// Client реализует domain.Messenger поверх whatsmeow.
type Client struct {
	wa     *whatsmeow.Client
	logger zerolog.Logger
	qrOut  io.Writer

	mu          sync.RWMutex
	onMessage   MessageHandler
	onConnected func(ctx context.Context)
	loggedOut   chan struct{}
	baseCtx     context.Context
}

var _ domain.Messenger = (*Client)(nil)

// Open поднимает хранилище устройства в Postgres и создаёт клиента.
func Open(ctx context.Context, db *sql.DB, logger zerolog.Logger, qrOut io.Writer) (*Client, error) {
	container := sqlstore.NewWithDB(db, "postgres", NewLogger(logger, "whatsmeow.store"))
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("whatsmeow store upgrade: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("whatsmeow device: %w", err)
	}
	c := &Client{
		wa:        whatsmeow.NewClient(device, NewLogger(logger, "whatsmeow")),
		logger:    logger.With().Str("component", "whatsapp").Logger(),
		qrOut:     qrOut,
		loggedOut: make(chan struct{}),
		baseCtx:   context.Background(),
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// OnMessage регистрирует обработчик входящих сообщений.
func (c *Client) OnMessage(fn MessageHandler) {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
}

// OnConnected регистрирует обработчик успешного подключения.
func (c *Client) OnConnected(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onConnected = fn
	c.mu.Unlock()
}

// LoggedOut закрывается, когда сессия завершена с телефона.
func (c *Client) LoggedOut() <-chan struct{} {
	return c.loggedOut
}

// Connect подключается к WhatsApp. Для непривязанного устройства выводит
// QR-код и ждёт сканирования. Переподключение после обрыва выполняет
// whatsmeow, кроме случая явного выхода из сессии.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	if c.wa.Store.ID != nil {
		return c.wa.Connect()
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("qr channel: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return err
	}
	for item := range qrChan {
		switch item.Event {
		case "code":
			c.logger.Info().Msg("scan the QR code to link the device")
			if c.qrOut != nil {
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, c.qrOut)
			}
		case "success":
			c.logger.Info().Msg("device linked")
			return nil
		default:
			if item.Error != nil {
				return fmt.Errorf("pairing %s: %w", item.Event, item.Error)
			}
			return fmt.Errorf("pairing failed: %s", item.Event)
		}
	}
	return ctx.Err()
}

// Disconnect закрывает соединение.
func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

// CheckReachable проверяет, зарегистрирован ли номер в WhatsApp.
func (c *Client) CheckReachable(ctx context.Context, phoneNumber string) (domain.Reachability, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reachability{}, err
	}
	start := time.Now()
	resp, err := c.wa.IsOnWhatsApp([]string{phoneNumber})
	metrics.ObserveNetworkRequest("whatsapp", "is_on_whatsapp", "whatsapp", start, err)
	if err != nil {
		return domain.Reachability{}, fmt.Errorf("is on whatsapp: %w", err)
	}
	for _, r := range resp {
		if r.IsIn {
			return domain.Reachability{Exists: true, ID: r.JID.String()}, nil
		}
	}
	return domain.Reachability{}, nil
}

// Send отправляет текстовое сообщение.
func (c *Client) Send(ctx context.Context, recipientID, text string) error {
	jid, err := ParseRecipient(recipientID)
	if err != nil {
		return fmt.Errorf("recipient %q: %w", recipientID, err)
	}
	start := time.Now()
	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	metrics.ObserveNetworkRequest("whatsapp", "send_message", jid.Server, start, err)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) handleEvent(evt any) {
	c.mu.RLock()
	ctx := c.baseCtx
	onMessage := c.onMessage
	onConnected := c.onConnected
	c.mu.RUnlock()

	switch e := evt.(type) {
	case *events.Message:
		var lids PhoneLookup
		if c.wa.Store != nil && c.wa.Store.LIDs != nil {
			lids = c.wa.Store.LIDs
		}
		msg, ok := inboundFromEvent(ctx, e, lids)
		if !ok || msg.FromMe || onMessage == nil {
			return
		}
		onMessage(ctx, msg)
	case *events.Connected:
		c.logger.Info().Msg("connected")
		if onConnected != nil {
			go onConnected(ctx)
		}
	case *events.Disconnected:
		c.logger.Warn().Msg("disconnected, waiting for reconnect")
	case *events.LoggedOut:
		c.logger.Error().Str("reason", e.Reason.String()).Msg("logged out, not reconnecting")
		c.closeLoggedOut()
	}
}

func (c *Client) closeLoggedOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.loggedOut:
	default:
		close(c.loggedOut)
	}
}
