package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// InsertEvent persists one event as a single atomic insert. The event's id,
// timestamps, and normalized fields are set by the writer before the call.
func (s *Store) InsertEvent(ctx context.Context, event *Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode event metadata: %w", err)
	}

	query := `
		INSERT INTO events (
			id, credential_id, event_name, url, referrer, device, ip_address,
			user_agent, browser, os, screen, user_id, metadata, occurred_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.CredentialID,
		event.Name,
		event.URL,
		event.Referrer,
		event.Device,
		event.IPAddress,
		event.UserAgent,
		event.Browser,
		event.OS,
		event.Screen,
		event.UserID,
		metadata,
		event.OccurredAt,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}
