package storage

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Credential deletion cascades to
// its events and account deletion cascades to its credentials, per the
// relational contract.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          UUID PRIMARY KEY,
	provider_id TEXT NOT NULL UNIQUE,
	email       TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	avatar_url  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS credentials (
	id           UUID PRIMARY KEY,
	account_id   UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	secret       CHAR(64) NOT NULL UNIQUE,
	app_name     TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	active       BOOLEAN NOT NULL DEFAULT TRUE,
	expires_at   TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	revoked_at   TIMESTAMPTZ,
	last_used_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS events (
	id            UUID PRIMARY KEY,
	credential_id UUID NOT NULL REFERENCES credentials(id) ON DELETE CASCADE,
	event_name    TEXT NOT NULL,
	url           TEXT NOT NULL DEFAULT '',
	referrer      TEXT NOT NULL DEFAULT '',
	device        TEXT NOT NULL DEFAULT 'desktop',
	ip_address    TEXT NOT NULL DEFAULT 'unknown',
	user_agent    TEXT NOT NULL DEFAULT '',
	browser       TEXT NOT NULL DEFAULT 'Unknown',
	os            TEXT NOT NULL DEFAULT 'Unknown',
	screen        TEXT NOT NULL DEFAULT '',
	user_id       TEXT,
	metadata      JSONB NOT NULL DEFAULT '{}',
	occurred_at   TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_credentials_account ON credentials(account_id);
CREATE INDEX IF NOT EXISTS idx_events_credential ON events(credential_id);
CREATE INDEX IF NOT EXISTS idx_events_name ON events(credential_id, event_name);
CREATE INDEX IF NOT EXISTS idx_events_user ON events(credential_id, user_id);
CREATE INDEX IF NOT EXISTS idx_events_occurred ON events(occurred_at);
`

// InitSchema creates tables and indexes when they do not exist
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
