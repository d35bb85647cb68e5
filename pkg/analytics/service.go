// Package analytics implements the aggregation read path with a cache-aside
// layer in front of the SQL aggregates.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/cache"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// Cache lifetimes per aggregate family. User statistics churn faster than
// event summaries, so they expire sooner.
const (
	summaryTTL   = 5 * time.Minute
	userStatsTTL = 2 * time.Minute
)

// aggregateStore is the slice of storage the service needs
type aggregateStore interface {
	EventSummary(ctx context.Context, accountID string, filter storage.SummaryFilter) (*storage.EventSummary, error)
	UserStatistics(ctx context.Context, accountID string, filter storage.UserFilter) (*storage.UserStats, error)
	AccountDashboard(ctx context.Context, accountID string) (*storage.Dashboard, error)
}

// Service answers aggregation queries, caching results per account
type Service struct {
	store   aggregateStore
	cache   cache.Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates an analytics query service
func NewService(store aggregateStore, cacheStore cache.Store, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		cache:   cacheStore,
		logger:  logger,
		metrics: metrics,
	}
}

// paramHash derives a deterministic digest of the query parameters so that
// distinct parameter sets never collide under one cache key
func paramHash(params interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Summary computes the event summary for one account, serving from cache
// when an identical query was answered recently. The bool reports whether
// the result came from the cache.
func (s *Service) Summary(ctx context.Context, accountID string, filter storage.SummaryFilter) (*storage.EventSummary, bool, error) {
	if filter.Event == "" {
		return nil, false, apperr.Validation("event is required", map[string]string{"event": "required"})
	}

	key := "agg:" + accountID + ":summary:" + paramHash(filter)
	var cached storage.EventSummary
	if s.lookup(ctx, key, "summary", &cached) {
		return &cached, true, nil
	}

	summary, err := s.store.EventSummary(ctx, accountID, filter)
	if err != nil {
		return nil, false, apperr.Storage(err)
	}

	s.save(ctx, key, summary, summaryTTL)
	return summary, false, nil
}

// UserStats computes the per-end-user aggregate for one account. A user with
// no events inside the account's scope yields a NotFound error.
func (s *Service) UserStats(ctx context.Context, accountID string, filter storage.UserFilter) (*storage.UserStats, bool, error) {
	if filter.UserID == "" {
		return nil, false, apperr.Validation("userId is required", map[string]string{"userId": "required"})
	}

	key := "agg:" + accountID + ":user:" + paramHash(filter)
	var cached storage.UserStats
	if s.lookup(ctx, key, "user", &cached) {
		return &cached, true, nil
	}

	stats, err := s.store.UserStatistics(ctx, accountID, filter)
	if err != nil {
		return nil, false, apperr.Storage(err)
	}
	if stats == nil {
		return nil, false, apperr.NotFound("no events found for user")
	}

	s.save(ctx, key, stats, userStatsTTL)
	return stats, false, nil
}

// Dashboard computes the per-account overview, cached under the same
// account namespace as the other aggregates
func (s *Service) Dashboard(ctx context.Context, accountID string) (*storage.Dashboard, bool, error) {
	key := "agg:" + accountID + ":dashboard"
	var cached storage.Dashboard
	if s.lookup(ctx, key, "dashboard", &cached) {
		return &cached, true, nil
	}

	dash, err := s.store.AccountDashboard(ctx, accountID)
	if err != nil {
		return nil, false, apperr.Storage(err)
	}

	s.save(ctx, key, dash, summaryTTL)
	return dash, false, nil
}

// lookup fetches and decodes a cached aggregate. Undecodable entries count
// as misses and are recomputed.
func (s *Service) lookup(ctx context.Context, key, query string, out interface{}) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues(query).Inc()
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("discarding undecodable cache entry")
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues(query).Inc()
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(query).Inc()
	}
	return true
}

// save stores a computed aggregate; failures are absorbed by the cache layer
func (s *Service) save(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to encode aggregate for cache")
		return
	}
	s.cache.Set(ctx, key, raw, ttl)
}
