package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// SummaryFilter narrows an event-summary aggregation. Every query is scoped
// to the credentials owned by one account; CredentialID optionally narrows to
// a single application.
type SummaryFilter struct {
	Event        string
	Start        *time.Time
	End          *time.Time
	CredentialID string
}

// UserFilter narrows a user-statistics aggregation
type UserFilter struct {
	UserID       string
	CredentialID string
	RecentLimit  int
}

// scopeClause builds the account-scoped WHERE prefix shared by all
// aggregation queries. Placeholders continue from the returned arg list.
func scopeClause(accountID, credentialID string) (string, []interface{}) {
	where := `credential_id IN (SELECT id FROM credentials WHERE account_id = $1)`
	args := []interface{}{accountID}
	if credentialID != "" {
		args = append(args, credentialID)
		where += ` AND credential_id = $` + strconv.Itoa(len(args))
	}
	return where, args
}

// groupedCounts runs one GROUP BY count over a fixed column name
func (s *Store) groupedCounts(ctx context.Context, column, where string, args []interface{}) (map[string]int64, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM events WHERE %s GROUP BY %s`,
		column, where, column,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s group: %w", column, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s groups: %w", column, err)
	}

	return counts, nil
}

// EventSummary computes the grouped aggregate for one event name. Zero
// matching rows yields a zero-valued result, never an error.
func (s *Store) EventSummary(ctx context.Context, accountID string, filter SummaryFilter) (*EventSummary, error) {
	where, args := scopeClause(accountID, filter.CredentialID)

	args = append(args, filter.Event)
	where += ` AND event_name = $` + strconv.Itoa(len(args))

	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += ` AND occurred_at >= $` + strconv.Itoa(len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += ` AND occurred_at <= $` + strconv.Itoa(len(args))
	}

	summary := &EventSummary{Event: filter.Event}

	totalsQuery := `
		SELECT COUNT(*), COUNT(DISTINCT user_id), COUNT(DISTINCT ip_address)
		FROM events
		WHERE ` + where

	err := s.db.QueryRowContext(ctx, totalsQuery, args...).Scan(
		&summary.Count,
		&summary.UniqueUsers,
		&summary.UniqueIPs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute summary totals: %w", err)
	}

	if summary.Count == 0 {
		summary.DeviceData = map[string]int64{}
		summary.BrowserData = map[string]int64{}
		summary.OSData = map[string]int64{}
		return summary, nil
	}

	if summary.DeviceData, err = s.groupedCounts(ctx, "device", where, args); err != nil {
		return nil, err
	}
	if summary.BrowserData, err = s.groupedCounts(ctx, "browser", where, args); err != nil {
		return nil, err
	}
	if summary.OSData, err = s.groupedCounts(ctx, "os", where, args); err != nil {
		return nil, err
	}

	return summary, nil
}

// UserStatistics computes the per-end-user aggregate. Returns (nil, nil)
// when the user has no events inside the caller's scope.
func (s *Store) UserStatistics(ctx context.Context, accountID string, filter UserFilter) (*UserStats, error) {
	where, args := scopeClause(accountID, filter.CredentialID)

	args = append(args, filter.UserID)
	where += ` AND user_id = $` + strconv.Itoa(len(args))

	stats := &UserStats{UserID: filter.UserID}

	totalsQuery := `
		SELECT COUNT(*), COUNT(DISTINCT event_name), MIN(occurred_at), MAX(occurred_at)
		FROM events
		WHERE ` + where

	var first, last sql.NullTime
	err := s.db.QueryRowContext(ctx, totalsQuery, args...).Scan(
		&stats.TotalEvents,
		&stats.UniqueEvents,
		&first,
		&last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user totals: %w", err)
	}

	if stats.TotalEvents == 0 {
		return nil, nil
	}
	if first.Valid {
		stats.FirstSeen = first.Time
	}
	if last.Valid {
		stats.LastSeen = last.Time
	}

	if stats.DeviceData, err = s.groupedCounts(ctx, "device", where, args); err != nil {
		return nil, err
	}

	addrQuery := `SELECT DISTINCT ip_address FROM events WHERE ` + where + ` ORDER BY ip_address`
	rows, err := s.db.QueryContext(ctx, addrQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan user address: %w", err)
		}
		stats.IPAddresses = append(stats.IPAddresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user addresses: %w", err)
	}

	limit := filter.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	recentQuery := `
		SELECT event_name, url, occurred_at
		FROM events
		WHERE ` + where + `
		ORDER BY occurred_at DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err = s.db.QueryContext(ctx, recentQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recent RecentEvent
		if err := rows.Scan(&recent.Event, &recent.URL, &recent.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent event: %w", err)
		}
		stats.RecentEvents = append(stats.RecentEvents, recent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent events: %w", err)
	}

	return stats, nil
}

// AccountDashboard computes the per-account overview
func (s *Store) AccountDashboard(ctx context.Context, accountID string) (*Dashboard, error) {
	dash := &Dashboard{}

	totalsQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM events
		WHERE credential_id IN (SELECT id FROM credentials WHERE account_id = $1)
	`
	err := s.db.QueryRowContext(ctx, totalsQuery, accountID).Scan(&dash.TotalEvents, &dash.EventsToday)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard totals: %w", err)
	}

	appsQuery := `
		SELECT c.id, c.app_name, COUNT(e.id)
		FROM credentials c
		LEFT JOIN events e ON e.credential_id = c.id
		WHERE c.account_id = $1
		GROUP BY c.id, c.app_name
		ORDER BY COUNT(e.id) DESC
	`
	rows, err := s.db.QueryContext(ctx, appsQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list application activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var app CredentialActivity
		if err := rows.Scan(&app.CredentialID, &app.AppName, &app.Events); err != nil {
			return nil, fmt.Errorf("failed to scan application activity: %w", err)
		}
		dash.Applications = append(dash.Applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application activity: %w", err)
	}

	topQuery := `
		SELECT event_name, COUNT(*)
		FROM events
		WHERE credential_id IN (SELECT id FROM credentials WHERE account_id = $1)
		GROUP BY event_name
		ORDER BY COUNT(*) DESC
		LIMIT 5
	`
	rows, err = s.db.QueryContext(ctx, topQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list top events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var top NamedCount
		if err := rows.Scan(&top.Name, &top.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top event: %w", err)
		}
		dash.TopEvents = append(dash.TopEvents, top)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top events: %w", err)
	}

	return dash, nil
}
