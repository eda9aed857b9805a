package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ucm/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed audit store bound to a
// transaction. The consent store uses this to pair the consent_write event
// with the record insert atomically.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, type, site, cookie_name, vendor_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.OccurredAt,
		string(event.Type),
		event.Site,
		nullString(event.CookieName),
		nullString(string(event.VendorID)),
		nullString(event.Details),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, occurred_at, type, site, cookie_name, vendor_id, details
		FROM audit_events
	`
	var (
		args  []any
		where string
	)
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		where = fmt.Sprintf(" WHERE type = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		if where == "" {
			where = fmt.Sprintf(" WHERE occurred_at >= $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
		}
	}
	args = append(args, filter.EffectiveLimit())
	query += where + fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d", len(args))

	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e          Event
			eventID    uuid.UUID
			cookieName sql.NullString
			vendorID   sql.NullString
			details    sql.NullString
		)
		if err := rows.Scan(&eventID, &e.OccurredAt, &e.Type, &e.Site, &cookieName, &vendorID, &details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = domain.AuditEventID(eventID)
		e.CookieName = cookieName.String
		e.VendorID = domain.VendorID(vendorID.String)
		e.Details = details.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
