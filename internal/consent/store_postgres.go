package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"ucm/internal/audit"
	"ucm/internal/catalog"
	"ucm/internal/consent/models"
	"ucm/internal/region"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
)

// PostgresStore persists consent records in PostgreSQL. Save runs the record
// insert, the choice inserts and the consent_write audit event in a single
// transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record, event audit.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save consent: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO consent_records (id, region, gpc, framework, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(record.ID), string(record.Region), record.GPC, string(record.Framework), record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert consent record: %w", err)
	}

	for i, choice := range record.Choices {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO consent_choices (consent_id, position, vendor_id, purpose_key, allowed) VALUES ($1, $2, $3, $4, $5)`,
			uuid.UUID(record.ID), i, nullString(string(choice.VendorID)), choice.Purpose, choice.Allowed,
		)
		if err != nil {
			return fmt.Errorf("insert consent choice: %w", err)
		}
	}

	if err := audit.NewPostgresTx(tx).Append(ctx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ConsentID) (*models.Record, error) {
	record := &models.Record{ID: id}
	var (
		reg       string
		framework string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT region, gpc, framework, created_at FROM consent_records WHERE id = $1`,
		uuid.UUID(id),
	).Scan(&reg, &record.GPC, &framework, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consent record: %w", err)
	}
	record.Region = region.Region(reg)
	record.Framework = catalog.Framework(framework)

	rows, err := s.db.QueryContext(ctx,
		`SELECT vendor_id, purpose_key, allowed FROM consent_choices WHERE consent_id = $1 ORDER BY position`,
		uuid.UUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("get consent choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			choice   models.Choice
			vendorID sql.NullString
		)
		if err := rows.Scan(&vendorID, &choice.Purpose, &choice.Allowed); err != nil {
			return nil, fmt.Errorf("scan consent choice: %w", err)
		}
		choice.VendorID = domain.VendorID(vendorID.String)
		record.Choices = append(record.Choices, choice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent choices: %w", err)
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
