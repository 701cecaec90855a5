package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores completed LLM reports so identical prompts skip the network.
type Cache interface {
	// GetReport retrieves a cached report by key.
	// Returns nil if not found
	GetReport(ctx context.Context, key string) (*Report, error)

	// SetReport stores a report with TTL
	SetReport(ctx context.Context, key string, report *Report, ttl time.Duration) error

	// Purge removes every cached report
	Purge(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// Report is a cached model response.
type Report struct {
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Key derives the cache key for a prompt sent to model.
func Key(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
