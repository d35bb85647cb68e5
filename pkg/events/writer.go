// Package events implements the ingestion write path: payload validation and
// normalization, the single atomic insert, and the detached cache
// invalidation that retires the owning account's aggregates.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/cache"
	"github.com/ita004/analytics-engine/pkg/enrich"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// maxEventNameLength bounds the required event name
const maxEventNameLength = 255

// invalidationTimeout bounds the detached prefix delete
const invalidationTimeout = 10 * time.Second

// Payload is the schema-valid ingestion body
type Payload struct {
	Event     string                 `json:"event"`
	URL       string                 `json:"url,omitempty"`
	Referrer  string                 `json:"referrer,omitempty"`
	Device    string                 `json:"device,omitempty"`
	IPAddress string                 `json:"ipAddress,omitempty"`
	Screen    string                 `json:"screen,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp *time.Time             `json:"timestamp,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// eventStore is the slice of storage the writer needs
type eventStore interface {
	InsertEvent(ctx context.Context, event *storage.Event) error
}

// Writer persists events and retires stale aggregates
type Writer struct {
	store   eventStore
	cache   cache.Store
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewWriter creates an event writer
func NewWriter(store eventStore, cacheStore cache.Store, logger *observability.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{
		store:   store,
		cache:   cacheStore,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Write validates and normalizes the payload, persists one event, and issues
// a fire-and-forget invalidation of the owning account's aggregate cache.
// Client-supplied device and address values take precedence over the
// enrichment-derived ones; the raw signature is always merged into metadata.
func (w *Writer) Write(ctx context.Context, cred *storage.Credential, sig enrich.Signature, address, rawSignature string, p Payload) (*storage.Event, error) {
	if p.Event == "" {
		return nil, apperr.Validation("event is required", map[string]string{"event": "required"})
	}
	if len(p.Event) > maxEventNameLength {
		return nil, apperr.Validation("event name is too long", map[string]string{"event": "too long"})
	}

	now := w.now().UTC()

	device := p.Device
	if device == "" {
		device = sig.DeviceClass
	}
	ip := p.IPAddress
	if ip == "" {
		ip = address
	}
	occurred := now
	if p.Timestamp != nil {
		occurred = p.Timestamp.UTC()
	}

	metadata := make(map[string]interface{}, len(p.Metadata)+1)
	for k, v := range p.Metadata {
		metadata[k] = v
	}
	metadata["userAgent"] = rawSignature

	event := &storage.Event{
		ID:           uuid.New().String(),
		CredentialID: cred.ID,
		Name:         p.Event,
		URL:          p.URL,
		Referrer:     p.Referrer,
		Device:       device,
		IPAddress:    ip,
		UserAgent:    rawSignature,
		Browser:      sig.Browser,
		OS:           sig.OS,
		Screen:       p.Screen,
		UserID:       p.UserID,
		Metadata:     metadata,
		OccurredAt:   occurred,
		CreatedAt:    now,
	}

	if err := w.store.InsertEvent(ctx, event); err != nil {
		if w.metrics != nil {
			w.metrics.IngestErrorsTotal.WithLabelValues("storage").Inc()
		}
		return nil, apperr.Storage(err)
	}

	if w.metrics != nil {
		w.metrics.EventsIngestedTotal.WithLabelValues(device).Inc()
	}

	// The write is committed; stale aggregates for this account are retired
	// off the request path. The response never waits for it.
	go w.invalidate(cred.AccountID)

	return event, nil
}

func (w *Writer) invalidate(accountID string) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()

	w.cache.DeleteByPrefix(ctx, AggregatePrefix(accountID))
	w.logger.WithField("account_id", accountID).Debug("invalidated aggregate cache")
}

// AggregatePrefix is the cache key namespace holding every aggregate scoped
// to an account. The writer deletes the whole namespace because any event
// under any of the account's credentials can change any of its aggregates.
func AggregatePrefix(accountID string) string {
	return "agg:" + accountID + ":"
}
