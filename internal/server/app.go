// Package server initializes and runs the paaster server.
// It selects the object store and blob storage back ends, handles graceful
// shutdown, runs the optional in-process sweeper and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/paaster/internal/logging"
	"github.com/dmitrijs2005/paaster/internal/server/blobs"
	"github.com/dmitrijs2005/paaster/internal/server/config"
	"github.com/dmitrijs2005/paaster/internal/server/repositories/objects"
	"github.com/dmitrijs2005/paaster/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/paaster/internal/server/rest"
	"github.com/dmitrijs2005/paaster/internal/server/services"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	contentService *services.ContentService
	blobHandler    http.Handler
}

// openPostgres is a seam for tests.
var openPostgres = repomanager.OpenPostgres

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	store, err := app.initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	bs, err := app.initBlobs(ctx)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("blob storage init error: %w", err)
	}

	app.contentService = services.NewContentService(store, bs, logger, c)
	return app, nil
}

func (app *App) initStore(ctx context.Context) (objects.Repository, error) {
	switch app.config.StoreDriver {
	case config.StoreMemory:
		app.logger.Warn(ctx, "using in-memory store, content will not survive a restart")
		return objects.NewMemoryRepository(timex.UTCNow), nil

	case config.StorePostgres:
		db, err := openPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		m := repomanager.NewPostgresRepositoryManager(timex.UTCNow)
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		app.db = db
		return m.Objects(db), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", app.config.StoreDriver)
	}
}

func (app *App) initBlobs(ctx context.Context) (blobs.Storage, error) {
	switch app.config.BlobDriver {
	case config.BlobS3:
		return blobs.NewS3Storage(ctx, blobs.S3Options{
			AccessKey: app.config.S3RootUser,
			SecretKey: app.config.S3RootPassword,
			Region:    app.config.S3Region,
			Endpoint:  app.config.S3BaseEndpoint,
			Bucket:    app.config.S3Bucket,
		})

	case config.BlobLocal:
		ls, err := blobs.NewLocalStorage(app.config.LocalBlobDir, app.config.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		app.blobHandler = ls.Handler()
		return ls, nil

	default:
		return nil, fmt.Errorf("unknown blob driver %q", app.config.BlobDriver)
	}
}

func (app *App) closeDB() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.db = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.SweepSecret == config.DefaultSweepSecret {
		app.logger.Warn(ctx, "sweep secret is the default; only signed sweep tokens are accepted")
	}

	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.contentService,
		app.config.SweepSecret, app.config.MaxAttachmentSize, app.blobHandler)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or the
// HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.closeDB()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "blobs", app.config.BlobDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.logger.Info(ctx, "Starting sweeper", "interval", app.config.SweepInterval)
			app.contentService.RunSweeper(ctx, app.config.SweepInterval)
		}()
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}
