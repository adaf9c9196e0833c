package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/basel-ax/avatargen/internal/domain"
)

// GenerationRepository defines the interface for generation history access
type GenerationRepository interface {
	Record(ctx context.Context, rec *domain.GenerationRecord) error
	Recent(ctx context.Context, limit int) ([]domain.GenerationRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Schema creates the history table
const Schema = `
	CREATE TABLE IF NOT EXISTS generations (
		id             BIGSERIAL PRIMARY KEY,
		session_id     TEXT NOT NULL,
		prompt         TEXT NOT NULL,
		revised_prompt TEXT NOT NULL DEFAULT '',
		resolution     TEXT NOT NULL,
		url            TEXT NOT NULL,
		path           TEXT NOT NULL,
		format         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)
`

// PostgresGenerationRepository implements GenerationRepository for PostgreSQL
type PostgresGenerationRepository struct {
	db *sql.DB
}

// NewPostgresGenerationRepository creates a new PostgreSQL generation repository
func NewPostgresGenerationRepository(db *sql.DB) *PostgresGenerationRepository {
	return &PostgresGenerationRepository{db: db}
}

// Migrate creates the generations table if needed
func (r *PostgresGenerationRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// Record stores a successful generation and sets its ID
func (r *PostgresGenerationRepository) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	query := `
		INSERT INTO generations (session_id, prompt, revised_prompt, resolution, url, path, format, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		rec.SessionID,
		rec.Prompt,
		rec.RevisedPrompt,
		string(rec.Resolution),
		rec.URL,
		rec.Path,
		rec.Format,
		rec.CreatedAt,
	).Scan(&rec.ID)
}

// Recent returns the latest generations, newest first
func (r *PostgresGenerationRepository) Recent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	query := `
		SELECT id, session_id, prompt, revised_prompt, resolution, url, path, format, created_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.GenerationRecord
	for rows.Next() {
		var rec domain.GenerationRecord
		var resolution string
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Prompt,
			&rec.RevisedPrompt,
			&resolution,
			&rec.URL,
			&rec.Path,
			&rec.Format,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Resolution = domain.Resolution(resolution)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteOlderThan removes history rows created before cutoff
func (r *PostgresGenerationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM generations
		WHERE created_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NopGenerationRepository is used when no history database is configured
type NopGenerationRepository struct{}

func (NopGenerationRepository) Record(context.Context, *domain.GenerationRecord) error { return nil }

func (NopGenerationRepository) Recent(context.Context, int) ([]domain.GenerationRecord, error) {
	return nil, nil
}

func (NopGenerationRepository) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}
