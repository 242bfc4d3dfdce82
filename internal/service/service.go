// Package service holds the application use cases. Handlers call services; services
// call repositories, storage, cache and notifiers, and own every business rule.
package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/logger"
	"opsdesk/internal/model"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Actor is the authenticated caller on whose behalf a use case runs.
type Actor struct {
	UserID string
	Role   model.Role
}

// IsManager is true for managers and admins.
func (a Actor) IsManager() bool {
	return a.Role.AtLeast(model.RoleManager)
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// ListResult is the service-level DTO for paginated listings.
type ListResult[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// notFound translates sql.ErrNoRows into the given service error.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// clock returns "now"; services override it in tests.
type clock func() time.Time

func systemClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// today is the caller's calendar date as a UTC midnight, comparable with stored dates.
func (c clock) today() time.Time {
	now := c()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func invalidateAnalytics(ctx context.Context, c cache.Cache, log *zap.Logger) {
	if err := c.DeletePrefix(ctx, cache.AnalyticsPrefix); err != nil {
		logger.For(ctx, log).Warn("analytics_cache_invalidate_failed", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
