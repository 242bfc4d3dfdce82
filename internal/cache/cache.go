// Package cache stores computed analytics results between requests.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache keyed by string.
// Get reports a miss with (false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// AnalyticsPrefix namespaces analytics results; writes to projects and time logs invalidate it.
const AnalyticsPrefix = "analytics:"

// Noop never stores anything. It is used when Redis is disabled.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error            { return nil }
