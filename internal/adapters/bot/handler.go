package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"conquerx-notifier/internal/domain"
)

// Тексты для оператора.
const (
	onlineMessage   = "Bot online y listo para funcionar."
	authLinkMessage = "Loguea en la app ingresando a este link: %s"
	authOKMessage   = "Autorización completada. Ya puedes enviar \"%s\"."
	authFailMessage = "No se pudo validar el código: %v"
	triggerAck      = "Comando \"%s\" recibido. Chequeando eventos y enviando mensajes..."
	busyMessage     = "Ya hay una ejecución en curso, se agregó a la cola."
	queueFull       = "La cola de ejecuciones está llena, intenta más tarde."
)

// Authorizer проводит OAuth-авторизацию календаря через оператора.
type Authorizer interface {
	Authorized() bool
	AuthURL() string
	ExchangeCode(ctx context.Context, code string) error
}

// Submitter принимает задачи на прогон.
type Submitter interface {
	Submit(job domain.RunJob) (queued bool, busy bool)
}

// Handler маршрутизирует входящие сообщения мессенджера.
type Handler struct {
	log      zerolog.Logger
	reporter domain.Reporter
	jobs     Submitter
	auth     Authorizer
	operator string
	trigger  string

	mu           sync.Mutex
	awaitingCode bool
}

// NewHandler создаёт обработчик. auth может быть nil, если авторизация не нужна.
func NewHandler(log zerolog.Logger, reporter domain.Reporter, jobs Submitter, auth Authorizer, operatorJID, trigger string) *Handler {
	return &Handler{
		log:      log.With().Str("component", "bot").Logger(),
		reporter: reporter,
		jobs:     jobs,
		auth:     auth,
		operator: operatorJID,
		trigger:  strings.TrimSpace(trigger),
	}
}

// HandleConnected уведомляет оператора о подключении и при отсутствии
// токена запрашивает авторизацию.
func (h *Handler) HandleConnected(ctx context.Context) {
	h.report(ctx, onlineMessage)
	if h.auth != nil && !h.auth.Authorized() {
		h.RequestAuthorization(ctx)
	}
}

// RequestAuthorization отправляет оператору ссылку и ждёт код следующим сообщением.
func (h *Handler) RequestAuthorization(ctx context.Context) {
	if h.auth == nil {
		return
	}
	h.mu.Lock()
	h.awaitingCode = true
	h.mu.Unlock()
	h.report(ctx, fmt.Sprintf(authLinkMessage, h.auth.AuthURL()))
}

// AwaitingCode сообщает, ожидается ли код авторизации.
func (h *Handler) AwaitingCode() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.awaitingCode
}

// HandleMessage обрабатывает входящее текстовое сообщение.
func (h *Handler) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if msg.FromMe {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.From == h.operator && h.AwaitingCode() {
		h.exchange(ctx, text)
		return
	}

	if h.trigger != "" && strings.EqualFold(text, h.trigger) {
		h.startRun(ctx, msg.From)
	}
}

func (h *Handler) exchange(ctx context.Context, code string) {
	if err := h.auth.ExchangeCode(ctx, code); err != nil {
		h.log.Error().Err(err).Msg("authorization code exchange failed")
		h.report(ctx, fmt.Sprintf(authFailMessage, err))
		return
	}
	h.mu.Lock()
	h.awaitingCode = false
	h.mu.Unlock()
	h.log.Info().Msg("calendar authorized")
	h.report(ctx, fmt.Sprintf(authOKMessage, h.trigger))
}

func (h *Handler) startRun(ctx context.Context, from string) {
	h.report(ctx, fmt.Sprintf(triggerAck, h.trigger))
	job := domain.RunJob{
		ID:          uuid.NewString(),
		Cause:       domain.RunCauseTrigger,
		RequestedBy: from,
		RequestedAt: time.Now().UTC(),
	}
	queued, busy := h.jobs.Submit(job)
	switch {
	case !queued:
		h.log.Warn().Str("job_id", job.ID).Msg("run queue is full")
		h.report(ctx, queueFull)
	case busy:
		h.report(ctx, busyMessage)
	default:
		h.log.Info().Str("job_id", job.ID).Str("from", from).Msg("run requested")
	}
}

func (h *Handler) report(ctx context.Context, text string) {
	if h.reporter == nil {
		return
	}
	if err := h.reporter.Report(ctx, text); err != nil {
		h.log.Error().Err(err).Msg("не удалось отправить сообщение оператору")
	}
}
