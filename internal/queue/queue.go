package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeScore TaskType = "score"
)

// Task is a unit of work passed between the gateway and the scorer.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// LastAttempt reports whether a failure of this delivery will not be retried.
func (t Task) LastAttempt() bool {
	limit := t.MaxAttempts
	if limit == 0 {
		limit = defaultMaxAttempts
	}
	return t.Attempts+1 >= limit
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// ScorePayload asks the scorer to produce the report identified by ReportID.
type ScorePayload struct {
	ReportID uuid.UUID `json:"report_id"`
	Email    string    `json:"email"`
	PAN      string    `json:"pan,omitempty"`
	SSI      float64   `json:"ssi"`
	SBI      float64   `json:"sbi"`
}

// NewScoreTask wraps payload in a score task.
func NewScoreTask(payload ScorePayload, maxAttempts int) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("failed to encode score payload: %w", err)
	}
	return Task{
		ID:          uuid.New(),
		Type:        TaskTypeScore,
		Payload:     body,
		MaxAttempts: maxAttempts,
	}, nil
}

// DecodeScorePayload reads the payload of a score task.
func DecodeScorePayload(task Task) (ScorePayload, error) {
	if task.Type != TaskTypeScore {
		return ScorePayload{}, fmt.Errorf("unexpected task type %q", task.Type)
	}
	var p ScorePayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return ScorePayload{}, fmt.Errorf("failed to decode score payload: %w", err)
	}
	if p.ReportID == uuid.Nil {
		return ScorePayload{}, fmt.Errorf("score payload missing report id")
	}
	return p, nil
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}
