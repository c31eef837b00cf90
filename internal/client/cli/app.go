package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/paaster/internal/client/client"
	"github.com/dmitrijs2005/paaster/internal/client/config"
	"github.com/dmitrijs2005/paaster/internal/client/repositories/history"
	"github.com/dmitrijs2005/paaster/internal/client/services"
	"github.com/dmitrijs2005/paaster/internal/common"
)

// App carries what every command needs once flags have been parsed.
type App struct {
	config *config.Config
	api    client.Client
	share  services.ShareService
	db     *sql.DB
}

// newApp is a seam so command tests can run without a server or database.
var newApp = func(ctx context.Context, cfg *config.Config) (*App, error) {
	api := client.NewHTTPClient(cfg.ServerURL, &http.Client{Timeout: cfg.Timeout})

	a := &App{config: cfg, api: api}

	var hist history.Repository
	if cfg.HistoryPath != "" {
		db, err := client.InitDatabase(ctx, cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", cfg.HistoryPath, err)
		}
		a.db = db
		hist = history.NewSQLiteRepository(db)
	}

	a.share = services.NewShareService(api, hist, cfg.ServerURL)
	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// describeError turns the sentinel errors into messages for people.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return "Content not found or has expired"
	case errors.Is(err, common.ErrAlreadyConsumed):
		return "Content already viewed or downloaded"
	case errors.Is(err, common.ErrPayloadTooLarge):
		return "File too large"
	case errors.Is(err, common.ErrAuthentication):
		return "Decryption failed"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable: " + err.Error()
	default:
		return err.Error()
	}
}
