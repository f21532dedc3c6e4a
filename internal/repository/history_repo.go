package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudy-backend/internal/models"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Record inserts one completed-generation row. Called best-effort from the
// processing pipeline; duplicates per fingerprint are allowed since each
// row is one generation, not one cache entry.
func (r *HistoryRepo) Record(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `INSERT INTO processing_history (id, fingerprint, source_type, video_id, title, transcript_chars, processing_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		entry.ID, entry.Fingerprint, entry.SourceType, entry.VideoID,
		entry.Title, entry.TranscriptChars, entry.ProcessingMS,
	).Scan(&entry.CreatedAt)
}

func (r *HistoryRepo) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `SELECT id, fingerprint, source_type, video_id, title, transcript_chars, processing_ms, created_at
		FROM processing_history ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		e := &models.HistoryEntry{}
		if err := rows.Scan(
			&e.ID, &e.Fingerprint, &e.SourceType, &e.VideoID,
			&e.Title, &e.TranscriptChars, &e.ProcessingMS, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
