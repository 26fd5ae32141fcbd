package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
	"conquerx-notifier/internal/usecase/meeting"
)

// Deps содержит коллабораторов прогона.
type Deps struct {
	Calendar    domain.CalendarSource
	Profile     domain.ProfileSource
	Messenger   domain.Messenger
	Reporter    domain.Reporter
	Ledger      domain.Ledger
	Unreachable domain.UnreachableList
	Normalizer  *meeting.Normalizer
	Catalog     domain.Catalog
}

// Options задаёт параметры окна и имя отправителя по умолчанию.
type Options struct {
	Location       *time.Location
	LookaheadDays  int
	SenderFallback string
}

// Service выполняет один прогон: встречи, нормализация, рассылка, отчёт.
type Service struct {
	deps       Deps
	opts       Options
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService создаёт сервис рассылки.
func NewService(deps Deps, opts Options, logger zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = 7
	}
	return &Service{
		deps:       deps,
		opts:       opts,
		dispatcher: NewDispatcher(deps.Messenger, deps.Ledger, deps.Catalog, logger),
		logger:     logger.With().Str("component", "notify").Logger(),
		now:        time.Now,
	}
}

// Window возвращает окно выборки: от текущего момента до конца дня
// через LookaheadDays дней в поясе сервера.
func (s *Service) Window(now time.Time) (time.Time, time.Time) {
	local := now.In(s.opts.Location)
	last := local.AddDate(0, 0, s.opts.LookaheadDays)
	end := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), s.opts.Location)
	return local, end
}

// Run выполняет прогон. Ошибка возвращается, только если прогон не удалось
// начать; ошибки отдельных встреч попадают в Summary.
func (s *Service) Run(ctx context.Context, job domain.RunJob) (summary domain.Summary, err error) {
	start := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := s.logger.With().Str("run_id", job.ID).Str("cause", string(job.Cause)).Logger()
	summary.RunID = job.ID
	defer func() { metrics.ObserveRun(string(job.Cause), start, err) }()

	if err := s.deps.Unreachable.Clear(ctx); err != nil {
		return summary, fmt.Errorf("очистка списка недоступных: %w", err)
	}

	sender := s.senderName(ctx, log)
	from, to := s.Window(s.now())
	meetings, err := s.deps.Calendar.Upcoming(ctx, from, to)
	if err != nil {
		err = fmt.Errorf("получение встреч: %w", err)
		s.report(ctx, log, FormatFailure(err))
		return summary, err
	}
	summary.MeetingsFound = len(meetings)
	log.Info().Int("meetings", len(meetings)).Time("from", from).Time("to", to).Msg("meetings fetched")

	events := s.normalize(ctx, log, meetings, sender, &summary)

	dispatched := s.dispatcher.Run(ctx, events)
	summary.Sent = dispatched.Sent
	summary.AlreadyNotified = dispatched.AlreadyNotified
	summary.Failed = append(summary.Failed, dispatched.Failed...)

	unreachable, err := s.deps.Unreachable.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("unreachable list read failed")
	}
	summary.Unreachable = unreachable

	for _, text := range FormatReport(summary, len(events)) {
		s.report(ctx, log, text)
	}

	if err := s.deps.Unreachable.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("unreachable list clear failed")
	}

	log.Info().
		Int("sent", len(summary.Sent)).
		Int("already_notified", len(summary.AlreadyNotified)).
		Int("unreachable", len(summary.Unreachable)).
		Int("invalid", len(summary.Invalid)).
		Int("failed", len(summary.Failed)).
		Int("errors", len(summary.Errors)).
		Msg("run finished")
	return summary, nil
}

func (s *Service) normalize(ctx context.Context, log zerolog.Logger, meetings []domain.MeetingRecord, sender string, summary *domain.Summary) []domain.NormalizedEvent {
	events := make([]domain.NormalizedEvent, 0, len(meetings))
	for _, m := range meetings {
		mlog := log.With().Str("title", m.Title).Str("meeting_id", m.ID).Logger()

		prepared, err := s.deps.Normalizer.Prepare(m)
		if err != nil {
			if errors.Is(err, meeting.ErrInvalidMeeting) {
				mlog.Info().Msg("invalid meeting, skipping")
				summary.Invalid = append(summary.Invalid, m.Title)
				metrics.IncMeeting(metrics.OutcomeInvalid)
				continue
			}
			mlog.Error().Err(err).Msg("meeting processing failed")
			summary.Errors = append(summary.Errors, m.Title)
			metrics.IncMeeting(metrics.OutcomeFailed)
			continue
		}

		phone := prepared.Contact.PhoneNumber
		checkStart := time.Now()
		reach, err := s.deps.Messenger.CheckReachable(ctx, phone)
		metrics.ObserveNetworkRequest("notify", "check_reachable", "messenger", checkStart, err)
		if err != nil {
			mlog.Error().Err(err).Str("phone", phone).Msg("reachability check failed")
			summary.Failed = append(summary.Failed, phone)
			metrics.IncMeeting(metrics.OutcomeFailed)
			continue
		}

		ev, err := s.deps.Normalizer.Finalize(prepared, sender, reach)
		if err != nil {
			if errors.Is(err, meeting.ErrUnreachable) {
				mlog.Info().Str("phone", phone).Msg("number not registered")
				s.markUnreachable(ctx, mlog, domain.UnreachableEntry{PhoneNumber: phone, Title: m.Title})
				continue
			}
			mlog.Error().Err(err).Msg("meeting processing failed")
			summary.Errors = append(summary.Errors, m.Title)
			metrics.IncMeeting(metrics.OutcomeFailed)
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (s *Service) markUnreachable(ctx context.Context, log zerolog.Logger, entry domain.UnreachableEntry) {
	added, err := s.deps.Unreachable.Add(ctx, entry)
	if err != nil {
		log.Error().Err(err).Msg("unreachable list write failed")
		return
	}
	if added {
		metrics.IncMeeting(metrics.OutcomeUnreachable)
	}
}

func (s *Service) senderName(ctx context.Context, log zerolog.Logger) string {
	if s.deps.Profile == nil {
		return s.opts.SenderFallback
	}
	name, err := s.deps.Profile.DisplayName(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("profile lookup failed, using fallback name")
		return s.opts.SenderFallback
	}
	if strings.TrimSpace(name) == "" {
		return s.opts.SenderFallback
	}
	return name
}

func (s *Service) report(ctx context.Context, log zerolog.Logger, text string) {
	if s.deps.Reporter == nil {
		return
	}
	if err := s.deps.Reporter.Report(ctx, text); err != nil {
		log.Error().Err(err).Msg("report delivery failed")
	}
}
