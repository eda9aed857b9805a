package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"ucm/internal/sentinel"
	"ucm/pkg/domain"
)

// PostgresVendorStore persists the vendor table in PostgreSQL. Purposes are
// kept in a child table so the purpose-key foreign relationship stays queryable.
type PostgresVendorStore struct {
	db *sql.DB
}

// NewPostgresVendorStore constructs a PostgreSQL-backed vendor store.
func NewPostgresVendorStore(db *sql.DB) *PostgresVendorStore {
	return &PostgresVendorStore{db: db}
}

func (s *PostgresVendorStore) List(ctx context.Context) ([]Vendor, error) {
	query := `
		SELECT v.id, v.name, v.domain, v.risk_score,
		       COALESCE(array_agg(vp.purpose_key) FILTER (WHERE vp.purpose_key IS NOT NULL), '{}')
		FROM vendors v
		LEFT JOIN vendor_purposes vp ON vp.vendor_id = v.id
		GROUP BY v.id, v.name, v.domain, v.risk_score
		ORDER BY v.created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var (
			v        Vendor
			id       string
			purposes []byte
		)
		if err := rows.Scan(&id, &v.Name, &v.Domain, &v.RiskScore, &purposes); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		v.ID = domain.VendorID(id)
		v.Purposes = parseTextArray(purposes)
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return vendors, nil
}

func (s *PostgresVendorStore) Create(ctx context.Context, vendor Vendor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create vendor: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vendors (id, name, domain, risk_score) VALUES ($1, $2, $3, $4)`,
		vendor.ID.String(), vendor.Name, vendor.Domain, vendor.RiskScore,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert vendor: %w", err)
	}
	if err := insertPurposes(ctx, tx, vendor); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create vendor: %w", err)
	}
	return nil
}

func (s *PostgresVendorStore) Update(ctx context.Context, vendor Vendor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update vendor: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE vendors SET name = $2, domain = $3, risk_score = $4 WHERE id = $1`,
		vendor.ID.String(), vendor.Name, vendor.Domain, vendor.RiskScore,
	)
	if err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update vendor rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vendor_purposes WHERE vendor_id = $1`, vendor.ID.String()); err != nil {
		return fmt.Errorf("clear vendor purposes: %w", err)
	}
	if err := insertPurposes(ctx, tx, vendor); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update vendor: %w", err)
	}
	return nil
}

func insertPurposes(ctx context.Context, tx *sql.Tx, vendor Vendor) error {
	for _, key := range vendor.Purposes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vendor_purposes (vendor_id, purpose_key) VALUES ($1, $2)`,
			vendor.ID.String(), key,
		); err != nil {
			return fmt.Errorf("insert vendor purpose: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// parseTextArray decodes a one-dimensional Postgres text array of purpose
// keys. Keys are lowercase identifiers, so the quoted/escaped forms never occur.
func parseTextArray(raw []byte) []string {
	s := string(raw)
	if len(s) < 2 || s == "{}" {
		return nil
	}
	s = s[1 : len(s)-1]
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
