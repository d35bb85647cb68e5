package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ita004/analytics-engine/pkg/enrich"
	"github.com/ita004/analytics-engine/pkg/httputil"
	"github.com/ita004/analytics-engine/pkg/observability"
)

// Scope budgets. Each scope counts in its own fixed window that resets hard
// at the boundary.
const (
	GlobalLimit  = 1000
	GlobalWindow = time.Hour

	IngestLimit  = 600
	IngestWindow = time.Minute

	QueryLimit  = 60
	QueryWindow = time.Minute
)

// Throttle is a Redis-backed fixed-window rate limiter. When Redis is
// unreachable it fails open: throttling is a protection layer, not an
// availability dependency.
type Throttle struct {
	client  *redis.Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewThrottle creates a throttle over the shared Redis client
func NewThrottle(client *redis.Client, logger *observability.Logger, metrics *observability.Metrics) *Throttle {
	return &Throttle{client: client, logger: logger, metrics: metrics}
}

// Allow counts one request against the scope's window for the given key.
// It returns whether the request fits the budget and, when it does not, how
// many seconds remain until the window resets.
func (t *Throttle) Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, int) {
	redisKey := "throttle:" + scope + ":" + key

	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		t.logger.WithError(err).WithField("scope", scope).Warn("rate limiter unavailable, allowing request")
		return true, 0
	}

	// The expiry is set only by the request that opens the window, so the
	// window never slides: later requests inherit the original deadline.
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, window).Err(); err != nil {
			t.logger.WithError(err).WithField("scope", scope).Warn("failed to set rate limit window")
		}
	}

	if count <= int64(limit) {
		return true, 0
	}

	if t.metrics != nil {
		t.metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
	}

	retryAfter := int(window / time.Second)
	if ttl, err := t.client.TTL(ctx, redisKey).Result(); err == nil {
		if ttl > 0 {
			retryAfter = int(ttl / time.Second)
			if retryAfter == 0 {
				retryAfter = 1
			}
		} else if ttl == -1 {
			// The opening EXPIRE must have failed, leaving the counter with
			// no deadline. Restore the window so the key cannot stay
			// throttled forever.
			if err := t.client.Expire(ctx, redisKey, window).Err(); err != nil {
				t.logger.WithError(err).WithField("scope", scope).Warn("failed to restore rate limit window")
			}
		}
	}
	return false, retryAfter
}

// limit wraps a handler with one throttle scope, deriving the counter key
// per request
func (t *Throttle) limit(scope string, limit int, window time.Duration, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := t.Allow(r.Context(), scope, keyFn(r), limit, window)
			if !allowed {
				httputil.WriteRateLimited(w, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitGlobal throttles every request per client address
func (t *Throttle) LimitGlobal() func(http.Handler) http.Handler {
	return t.limit("global", GlobalLimit, GlobalWindow, clientAddress)
}

// LimitIngest throttles ingestion per credential secret, falling back to the
// client address when no key header is present so unauthenticated floods
// still hit a budget
func (t *Throttle) LimitIngest() func(http.Handler) http.Handler {
	return t.limit("ingest", IngestLimit, IngestWindow, func(r *http.Request) string {
		if key := r.Header.Get(apiKeyHeader); key != "" {
			return key
		}
		return clientAddress(r)
	})
}

// LimitQuery throttles analytics queries per caller address
func (t *Throttle) LimitQuery() func(http.Handler) http.Handler {
	return t.limit("query", QueryLimit, QueryWindow, clientAddress)
}

func clientAddress(r *http.Request) string {
	return enrich.ResolveAddress(r.Header, r.RemoteAddr)
}
