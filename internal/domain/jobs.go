package domain

import (
	"context"
	"time"
)

// RunCause описывает источник запуска рассылки.
type RunCause string

const (
	// RunCauseTrigger: запуск по сообщению с ключевым словом.
	RunCauseTrigger RunCause = "trigger"
	// RunCauseScheduled: запуск по расписанию.
	RunCauseScheduled RunCause = "scheduled"
	// RunCauseHTTP: запуск через HTTP API.
	RunCauseHTTP RunCause = "http"
)

// RunJob содержит информацию о задаче рассылки.
type RunJob struct {
	ID          string    `json:"job_id,omitempty"`
	Cause       RunCause  `json:"cause"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// RunQueue описывает очередь задач на рассылку.
type RunQueue interface {
	Enqueue(ctx context.Context, job RunJob) error
	Pop(ctx context.Context) (RunJob, error)
}
