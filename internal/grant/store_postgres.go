package grant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dataportal/pkg/domain"
	"dataportal/pkg/platform/sentinel"
)

// PostgresStore persists grants in PostgreSQL. The primary key on
// (subject, resource_ref) plus ON CONFLICT DO UPDATE gives atomic same-key
// upserts without explicit locking.
//
// Schema:
//
//	CREATE TABLE grants (
//	    subject      TEXT NOT NULL,
//	    resource_ref TEXT NOT NULL,
//	    level        TEXT NOT NULL,
//	    granted_by   TEXT NOT NULL,
//	    granted_at   TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (subject, resource_ref)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, g Grant) error {
	query := `
		INSERT INTO grants (subject, resource_ref, level, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject, resource_ref)
		DO UPDATE SET level = EXCLUDED.level, granted_by = EXCLUDED.granted_by, granted_at = EXCLUDED.granted_at
	`
	if _, err := s.db.ExecContext(ctx, query, g.Subject, g.ResourceRef, string(g.Level), g.GrantedBy, g.GrantedAt); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, subject, resourceRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM grants WHERE subject = $1 AND resource_ref = $2`,
		subject, resourceRef,
	)
	if err != nil {
		return false, fmt.Errorf("revoke grant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke grant rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Lookup(ctx context.Context, subject, resourceRef string) (Grant, error) {
	var (
		g     Grant
		level string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT subject, resource_ref, level, granted_by, granted_at FROM grants WHERE subject = $1 AND resource_ref = $2`,
		subject, resourceRef,
	).Scan(&g.Subject, &g.ResourceRef, &level, &g.GrantedBy, &g.GrantedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grant{}, sentinel.ErrNotFound
		}
		return Grant{}, fmt.Errorf("lookup grant: %w", err)
	}
	g.Level = domain.AccessLevel(level)
	return g, nil
}
