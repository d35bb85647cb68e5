package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInsertEvent(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	event := &Event{
		ID:           "evt-1",
		CredentialID: "cred-1",
		Name:         "signup",
		URL:          "/join",
		Device:       "desktop",
		IPAddress:    "203.0.113.7",
		UserAgent:    "Mozilla/5.0",
		Browser:      "Chrome",
		OS:           "Windows",
		UserID:       "user-1",
		Metadata:     map[string]interface{}{"plan": "pro"},
		OccurredAt:   now,
		CreatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(
			"evt-1", "cred-1", "signup", "/join", "", "desktop", "203.0.113.7",
			"Mozilla/5.0", "Chrome", "Windows", "", "user-1",
			sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.InsertEvent(context.Background(), event); err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertEventAnonymous(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	event := &Event{
		ID:           "evt-2",
		CredentialID: "cred-1",
		Name:         "pageview",
		Device:       "mobile",
		IPAddress:    "203.0.113.7",
		Browser:      "Safari",
		OS:           "iOS",
		OccurredAt:   now,
		CreatedAt:    now,
	}

	// An empty user id is passed through; the statement maps it to NULL.
	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(
			"evt-2", "cred-1", "pageview", "", "", "mobile", "203.0.113.7",
			"", "Safari", "iOS", "", "",
			sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.InsertEvent(context.Background(), event); err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}
}
