package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusProcessing ReportStatus = "processing"
	StatusReady      ReportStatus = "ready"
	StatusFailed     ReportStatus = "failed"
)

var ErrReportNotFound = errors.New("report not found")

// Report is a persisted LLM scoring request and its outcome.
type Report struct {
	ID        uuid.UUID    `json:"id"`
	Email     string       `json:"email"`
	PAN       string       `json:"pan,omitempty"`
	Params    []float64    `json:"params"`
	Status    ReportStatus `json:"status"`
	Model     string       `json:"model,omitempty"`
	Text      string       `json:"text,omitempty"`
	Failure   string       `json:"failure,omitempty"`
	Cached    bool         `json:"cached"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Outcome is what the scorer writes back once a report is done.
type Outcome struct {
	Status  ReportStatus
	Model   string
	Text    string
	Failure string
	Cached  bool
}

// Store defines the persistence contract for reports.
type Store interface {
	CreateReport(ctx context.Context, report Report) (Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (Report, error)
	ListReports(ctx context.Context, email string, limit int) ([]Report, error)
	UpdateReportStatus(ctx context.Context, id uuid.UUID, status ReportStatus) error
	CompleteReport(ctx context.Context, id uuid.UUID, outcome Outcome) error
}
