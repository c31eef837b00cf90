// Package rest exposes the content lifecycle over HTTP: multipart create,
// fetch by id, the bearer-protected sweep trigger and a liveness ping.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paaster/internal/logging"
	"github.com/dmitrijs2005/paaster/internal/server/config"
	"github.com/dmitrijs2005/paaster/internal/server/models"
	"github.com/dmitrijs2005/paaster/internal/server/services"
)

// ContentService is the lifecycle the handlers drive.
type ContentService interface {
	Create(ctx context.Context, in *services.CreateInput) (*models.Content, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Sweep(ctx context.Context) (*services.SweepResult, error)
}

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address       string
	contents      ContentService
	logger        logging.Logger
	sweepSecret   []byte
	rawSecretOK   bool
	maxUploadSize int64
	blobs         http.Handler
}

// NewHTTPServer builds the server. blobs may be nil; when set it is mounted
// under /blobs/ for the local blob driver. The raw sweep secret is refused
// as a bearer while it equals config.DefaultSweepSecret.
func NewHTTPServer(a string, l logging.Logger, cs ContentService, sweepSecret string, maxUploadSize int64, blobs http.Handler) *HTTPServer {
	return &HTTPServer{
		address:       a,
		logger:        l.With("module", "http_server"),
		contents:      cs,
		sweepSecret:   []byte(sweepSecret),
		rawSecretOK:   sweepSecret != config.DefaultSweepSecret,
		maxUploadSize: maxUploadSize,
		blobs:         blobs,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api", s.handleCreate)
	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.Handle("GET /api/cron", s.requireSweepToken(http.HandlerFunc(s.handleSweep)))
	mux.HandleFunc("GET /api/{id}", s.handleGet)
	if s.blobs != nil {
		mux.Handle("GET /blobs/", s.blobs)
	}

	return s.withRequestID(s.withLogging(mux))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() {
		if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
