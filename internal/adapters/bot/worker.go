package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"conquerx-notifier/internal/domain"
)

// Runner выполняет один прогон рассылки.
type Runner interface {
	Run(ctx context.Context, job domain.RunJob) (domain.Summary, error)
}

// Worker выполняет прогоны строго по одному, в порядке поступления.
type Worker struct {
	runner Runner
	jobs   chan domain.RunJob
	log    zerolog.Logger
	active atomic.Bool
}

// NewWorker создаёт воркер с очередью на buffer задач.
func NewWorker(runner Runner, buffer int, log zerolog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 1
	}
	return &Worker{
		runner: runner,
		jobs:   make(chan domain.RunJob, buffer),
		log:    log.With().Str("component", "worker").Logger(),
	}
}

// Submit ставит задачу в очередь без блокировки. queued=false, если очередь
// заполнена; busy=true, если уже идёт другой прогон.
func (w *Worker) Submit(job domain.RunJob) (queued bool, busy bool) {
	busy = w.active.Load() || len(w.jobs) > 0
	select {
	case w.jobs <- job:
		return true, busy
	default:
		return false, busy
	}
}

// Run обрабатывает задачи до отмены контекста.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job domain.RunJob) {
	w.active.Store(true)
	defer w.active.Store(false)

	log := w.log.With().Str("job_id", job.ID).Str("cause", string(job.Cause)).Logger()
	log.Info().Msg("run started")
	summary, err := w.runner.Run(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return
	}
	log.Info().Int("sent", len(summary.Sent)).Int("meetings", summary.MeetingsFound).Msg("run completed")
}

// Consume перекладывает задачи из внешней очереди в воркер до отмены контекста.
func (w *Worker) Consume(ctx context.Context, queue domain.RunQueue) error {
	for {
		job, err := queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("queue pop failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if queued, _ := w.Submit(job); !queued {
			w.log.Warn().Str("job_id", job.ID).Msg("worker queue is full, dropping job")
		}
	}
}
