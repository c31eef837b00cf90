package history

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paaster/internal/client/models"
)

type Repository interface {
	// Add inserts a share or replaces the one with the same server and id.
	Add(ctx context.Context, s *models.Share) error

	// List returns all shares, newest first.
	List(ctx context.Context) ([]*models.Share, error)

	// Forget removes a share. Forgetting an unknown share is not an error.
	Forget(ctx context.Context, server, id string) error

	// PurgeExpired removes shares whose expiry is not after now and returns
	// how many were removed. Burn-after-read shares have no expiry and are
	// kept.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
