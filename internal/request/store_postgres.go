package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dataportal/pkg/domain"
	"dataportal/pkg/platform/sentinel"
)

// PostgresStore persists access requests in PostgreSQL. The decide
// transition is a single conditional UPDATE, so concurrent deciders resolve
// in the database: one statement matches the PENDING row, the rest match
// nothing.
//
// Schema:
//
//	CREATE TABLE access_requests (
//	    id                UUID PRIMARY KEY,
//	    resource_ref      TEXT NOT NULL,
//	    requester_subject TEXT NOT NULL,
//	    access_level      TEXT NOT NULL,
//	    reason            TEXT NOT NULL,
//	    status            TEXT NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    decided_by        TEXT,
//	    decided_at        TIMESTAMPTZ,
//	    decision_note     TEXT
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, resource_ref, requester_subject, access_level, reason, status, created_at, decided_by, decided_at, decision_note`

func (s *PostgresStore) Create(ctx context.Context, req AccessRequest) error {
	query := `
		INSERT INTO access_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID.String(),
		req.ResourceRef,
		req.RequesterSubject,
		string(req.AccessLevel),
		req.Reason,
		string(req.Status),
		req.CreatedAt,
		nullString(req.DecidedBy),
		req.DecidedAt,
		nullString(req.DecisionNote),
	)
	if err != nil {
		return fmt.Errorf("create access request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequestID) (AccessRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM access_requests WHERE id = $1`,
		id.String(),
	)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccessRequest{}, sentinel.ErrNotFound
		}
		return AccessRequest{}, fmt.Errorf("get access request: %w", err)
	}
	return req, nil
}

// DecideIfPending runs the transition as one conditional UPDATE. Zero rows
// means either the id is unknown or the request is already terminal; a
// follow-up read distinguishes the two.
func (s *PostgresStore) DecideIfPending(ctx context.Context, id domain.RequestID, status Status, decidedBy string, decidedAt time.Time, note string) (AccessRequest, error) {
	query := `
		UPDATE access_requests
		SET status = $2, decided_by = $3, decided_at = $4, decision_note = $5
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + requestColumns
	row := s.db.QueryRowContext(ctx, query, id.String(), string(status), decidedBy, decidedAt, note)
	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return AccessRequest{}, fmt.Errorf("decide access request: %w", err)
	}
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return AccessRequest{}, getErr
	}
	return AccessRequest{}, sentinel.ErrConflict
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]AccessRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM access_requests`
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.ApproverSubject != "" {
		args = append(args, filter.ApproverSubject)
		conds = append(conds, "decided_by = $"+strconv.Itoa(len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	defer rows.Close()

	var out []AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (AccessRequest, error) {
	var (
		req       AccessRequest
		id        string
		level     string
		status    string
		decidedBy sql.NullString
		decidedAt sql.NullTime
		note      sql.NullString
	)
	err := row.Scan(&id, &req.ResourceRef, &req.RequesterSubject, &level, &req.Reason, &status, &req.CreatedAt, &decidedBy, &decidedAt, &note)
	if err != nil {
		return AccessRequest{}, err
	}
	req.ID = domain.RequestID(id)
	req.AccessLevel = domain.AccessLevel(level)
	req.Status = Status(status)
	req.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t := decidedAt.Time
		req.DecidedAt = &t
	}
	req.DecisionNote = note.String
	return req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
