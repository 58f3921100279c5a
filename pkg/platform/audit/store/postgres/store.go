package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "gatehouse/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL for read-back and retention.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit_events table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id          BIGSERIAL PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			user_id     BIGINT NOT NULL DEFAULT 0,
			email       TEXT NOT NULL DEFAULT '',
			action      TEXT NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			request_id  TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, user_id, email, action, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		event.UserID,
		event.Email,
		event.Action,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]audit.Event, error) {
	query := `
		SELECT occurred_at, user_id, email, action, reason, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.Timestamp, &e.UserID, &e.Email, &e.Action, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
