package objects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/dbx"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

// PostgresRepository implements Repository over the kv and scored_members
// tables. Expiry is compared against the injected clock, never against the
// database clock, so reads and writes agree on what "now" is.
type PostgresRepository struct {
	db  *sql.DB
	now timex.Clock
}

// NewPostgresRepository constructs a repository bound to db.
func NewPostgresRepository(db *sql.DB, now timex.Clock) *PostgresRepository {
	if now == nil {
		now = timex.UTCNow
	}
	return &PostgresRepository{db: db, now: now}
}

func (r *PostgresRepository) expiry(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: r.now().Add(ttl), Valid: true}
}

// Set upserts key. An existing value and expiry are replaced.
func (r *PostgresRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO kv (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, r.expiry(ttl)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the live value for key or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var value []byte
	err := r.db.QueryRowContext(ctx, query, key, r.now()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM kv WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key, r.now()).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return exists, nil
}

// SetIfAbsent is a single statement: the insert wins when no row exists,
// the conditional update wins when the existing row has expired, and
// otherwise nothing is written. Postgres serialises concurrent attempts on
// the primary key, so exactly one caller observes one affected row.
func (r *PostgresRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	query := `
		INSERT INTO kv (key, value, expires_at)
		VALUES ($1, $2, NULL)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = NULL
			WHERE kv.expires_at IS NOT NULL AND kv.expires_at <= $3
	`
	res, err := r.db.ExecContext(ctx, query, key, value, r.now())
	if err != nil {
		return false, fmt.Errorf("set if absent %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Expire resets the TTL of a live key. Expired rows awaiting purge are left
// alone so they cannot be revived.
func (r *PostgresRepository) Expire(ctx context.Context, key string, ttl time.Duration) error {
	query := `
		UPDATE kv SET expires_at = $2
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $3)
	`
	if _, err := r.db.ExecContext(ctx, query, key, r.expiry(ttl), r.now()); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) AddScored(ctx context.Context, set, member string, score int64) error {
	query := `
		INSERT INTO scored_members (set_name, member, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (set_name, member)
		DO UPDATE SET score = EXCLUDED.score
	`
	if _, err := r.db.ExecContext(ctx, query, set, member, score); err != nil {
		return fmt.Errorf("add scored %s: %w", set, err)
	}
	return nil
}

func (r *PostgresRepository) RangeByScore(ctx context.Context, set string, min, max int64) ([]string, error) {
	query := `
		SELECT member FROM scored_members
		WHERE set_name = $1 AND score >= $2 AND score <= $3
		ORDER BY score, member
	`
	rows, err := r.db.QueryContext(ctx, query, set, min, max)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", set, err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveScored deletes all members in one transaction.
func (r *PostgresRepository) RemoveScored(ctx context.Context, set string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, m := range members {
			if _, err := tx.ExecContext(ctx, `DELETE FROM scored_members WHERE set_name = $1 AND member = $2`, set, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove scored %s: %w", set, err)
	}
	return nil
}

// PurgeExpired physically removes expired rows. Reads already ignore them;
// this only reclaims space.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return res.RowsAffected()
}
