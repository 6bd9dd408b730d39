// Package http exposes the server's public HTTP/JSON API: account and token
// endpoints plus the per-user document store the clients replicate against.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/dmitrijs2005/bizkeeper/internal/server/services"
)

type Server struct {
	address     string
	users       *services.UserService
	documents   *services.DocumentService
	attachments *services.AttachmentService
	logger      logging.Logger
	jwtSecret   []byte
}

func NewServer(a string, l logging.Logger, us *services.UserService, ds *services.DocumentService, as *services.AttachmentService, secretKey string) (*Server, error) {
	return &Server{
		address:     a,
		logger:      l.With("module", "http_server"),
		users:       us,
		documents:   ds,
		attachments: as,
		jwtSecret:   []byte(secretKey),
	}, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/users/register", s.handleRegister)
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/users/refresh", s.handleRefresh)

	mux.Handle("PUT /api/collections/{collection}/records/{id}", s.withAuth(s.handleUpsertRecord))
	mux.Handle("GET /api/collections/{collection}/records", s.withAuth(s.handleListRecords))
	mux.Handle("PUT /api/docs/{collection}", s.withAuth(s.handleUpsertDocument))
	mux.Handle("GET /api/docs/{collection}", s.withAuth(s.handleGetDocument))

	mux.Handle("POST /api/attachments/presign-put", s.withAuth(s.handlePresignPut))
	mux.Handle("GET /api/attachments/presign-get", s.withAuth(s.handlePresignGet))

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
