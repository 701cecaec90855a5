package cache

import (
	"context"
	"time"
)

// NoOpCache is used when Redis is unavailable. Every lookup is a miss.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetReport(ctx context.Context, key string) (*Report, error) {
	return nil, nil
}

func (c *NoOpCache) SetReport(ctx context.Context, key string, report *Report, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Purge(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
