package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paaster/internal/client/models"
	"github.com/dmitrijs2005/paaster/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX. Timestamps are
// stored as Unix milliseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, s *models.Share) error {
	query := `INSERT INTO shares (id, server, url, title, expires, burn_after_read, has_attachment, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(server, id) DO UPDATE SET url = excluded.url,
			title = excluded.title,
			expires = excluded.expires,
			burn_after_read = excluded.burn_after_read,
			has_attachment = excluded.has_attachment,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`
	var expiresAt sql.NullInt64
	if s.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: s.ExpiresAt.UnixMilli(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Server, s.URL, s.Title, s.Expires, s.BurnAfterRead, s.HasAttachment,
		s.CreatedAt.UnixMilli(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to save share: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Share, error) {
	query := `SELECT id, server, url, title, expires, burn_after_read, has_attachment, created_at, expires_at
		FROM shares ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		var (
			s         models.Share
			createdAt int64
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Server, &s.URL, &s.Title, &s.Expires,
			&s.BurnAfterRead, &s.HasAttachment, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan share row: %w", err)
		}
		s.CreatedAt = time.UnixMilli(createdAt).UTC()
		if expiresAt.Valid {
			t := time.UnixMilli(expiresAt.Int64).UTC()
			s.ExpiresAt = &t
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Forget(ctx context.Context, server, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE server = ? AND id = ?`, server, id)
	if err != nil {
		return fmt.Errorf("failed to delete share %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shares WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge shares: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
