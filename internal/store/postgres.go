package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by PostgresStore.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const createArtifactsTable = `
CREATE TABLE IF NOT EXISTS conversion_artifacts (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	content_type TEXT NOT NULL,
	operation    TEXT NOT NULL,
	size         BIGINT NOT NULL,
	content      BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversion_artifacts_created_at_idx
	ON conversion_artifacts (created_at);
`

// PostgresStore keeps artifacts in the conversion_artifacts table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps a pool or transaction.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the artifacts table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createArtifactsTable); err != nil {
		return fmt.Errorf("create conversion_artifacts: %w", err)
	}
	return nil
}

// Save implements Store.
func (p *PostgresStore) Save(ctx context.Context, a NewArtifact) (Artifact, error) {
	id := uuid.New()

	var createdAt pgtype.Timestamptz
	err := p.db.QueryRow(ctx, `
		INSERT INTO conversion_artifacts (id, name, content_type, operation, size, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		pgtype.UUID{Bytes: id, Valid: true}, a.Name, a.ContentType, a.Operation, int64(len(a.Content)), a.Content,
	).Scan(&createdAt)
	if err != nil {
		return Artifact{}, fmt.Errorf("insert artifact: %w", err)
	}

	return Artifact{
		ID:          id.String(),
		Name:        a.Name,
		ContentType: a.ContentType,
		Operation:   a.Operation,
		Size:        int64(len(a.Content)),
		CreatedAt:   createdAt.Time.UTC(),
	}, nil
}

// Open implements Store.
func (p *PostgresStore) Open(ctx context.Context, id string) (Artifact, []byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Artifact{}, nil, ErrNotFound
	}

	var (
		meta      Artifact
		content   []byte
		createdAt pgtype.Timestamptz
	)
	err = p.db.QueryRow(ctx, `
		SELECT name, content_type, operation, size, content, created_at
		FROM conversion_artifacts
		WHERE id = $1`,
		pgtype.UUID{Bytes: parsed, Valid: true},
	).Scan(&meta.Name, &meta.ContentType, &meta.Operation, &meta.Size, &content, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Artifact{}, nil, ErrNotFound
	}
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("select artifact: %w", err)
	}

	meta.ID = parsed.String()
	meta.CreatedAt = createdAt.Time.UTC()
	return meta, content, nil
}

// Recent implements Store.
func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]Artifact, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, name, content_type, operation, size, created_at
		FROM conversion_artifacts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		a, err := scanArtifactRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteBefore implements Store.
func (p *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM conversion_artifacts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge artifacts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanArtifactRow(rows pgx.Rows) (Artifact, error) {
	var (
		id        pgtype.UUID
		a         Artifact
		createdAt pgtype.Timestamptz
	)
	if err := rows.Scan(&id, &a.Name, &a.ContentType, &a.Operation, &a.Size, &createdAt); err != nil {
		return Artifact{}, fmt.Errorf("scan artifact: %w", err)
	}
	a.ID = uuid.UUID(id.Bytes).String()
	a.CreatedAt = createdAt.Time.UTC()
	return a, nil
}
