// Package storage implements the relational store for accounts, credentials,
// and events on PostgreSQL. It is the single source of truth; every write is
// a single-row atomic insert or update.
package storage

import "time"

// Account is the identity of a human operator, created on first successful
// external login and refreshed on subsequent logins.
type Account struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Credential is an API key scoping ingestion to one registered application.
// It is usable for ingestion iff Active and not past its effective expiry.
// Revocation retains the row; regeneration replaces the secret in place.
type Credential struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Secret     string     `json:"secret,omitempty"`
	AppName    string     `json:"app_name"`
	Domain     string     `json:"domain,omitempty"`
	Active     bool       `json:"active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Usable reports whether the credential is accepted for ingestion at now
func (c *Credential) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Event is one immutable ingested analytics fact owned by exactly one
// credential. Once written it is never mutated or deleted here.
type Event struct {
	ID           string                 `json:"id"`
	CredentialID string                 `json:"-"`
	Name         string                 `json:"event"`
	URL          string                 `json:"url,omitempty"`
	Referrer     string                 `json:"referrer,omitempty"`
	Device       string                 `json:"device"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Browser      string                 `json:"browser"`
	OS           string                 `json:"os"`
	Screen       string                 `json:"screen,omitempty"`
	UserID       string                 `json:"user_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   time.Time              `json:"timestamp"`
	CreatedAt    time.Time              `json:"created_at"`
}

// EventSummary is the derived per-event-name aggregate
type EventSummary struct {
	Event        string           `json:"event"`
	Count        int64            `json:"count"`
	UniqueUsers  int64            `json:"uniqueUsers"`
	UniqueIPs    int64            `json:"uniqueIps"`
	DeviceData   map[string]int64 `json:"deviceData"`
	BrowserData  map[string]int64 `json:"browserData"`
	OSData       map[string]int64 `json:"osData"`
}

// RecentEvent is one entry of the bounded newest-first recent-event list
type RecentEvent struct {
	Event      string    `json:"event"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"timestamp"`
}

// UserStats is the derived per-end-user aggregate
type UserStats struct {
	UserID       string           `json:"userId"`
	TotalEvents  int64            `json:"totalEvents"`
	UniqueEvents int64            `json:"uniqueEvents"`
	DeviceData   map[string]int64 `json:"deviceData"`
	IPAddresses  []string         `json:"ipAddresses"`
	FirstSeen    time.Time        `json:"firstSeen"`
	LastSeen     time.Time        `json:"lastSeen"`
	RecentEvents []RecentEvent    `json:"recentEvents"`
}

// CredentialActivity is one row of the dashboard per-application breakdown
type CredentialActivity struct {
	CredentialID string `json:"app_id"`
	AppName      string `json:"app_name"`
	Events       int64  `json:"events"`
}

// NamedCount pairs a label with a count for top-N listings
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Dashboard is the derived per-account overview
type Dashboard struct {
	TotalEvents  int64                `json:"totalEvents"`
	EventsToday  int64                `json:"eventsToday"`
	Applications []CredentialActivity `json:"applications"`
	TopEvents    []NamedCount         `json:"topEvents"`
}
