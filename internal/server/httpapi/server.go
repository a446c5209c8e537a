// Package httpapi exposes the registry operations over a JSON HTTP API:
// challenge/token authentication, register, lookup, update-key and the
// admin snapshot trigger.
package httpapi

import (
	"context"
	"net"
	"net/http"

	"github.com/dmitrijs2005/keydir/internal/logging"
	"github.com/dmitrijs2005/keydir/internal/server/auth"
	"github.com/dmitrijs2005/keydir/internal/server/registry"
)

// Exporter triggers a registry snapshot export and returns the object key
// and a download URL. Implemented by the snapshot service.
type Exporter interface {
	Export(ctx context.Context) (string, string, error)
}

type Server struct {
	address  string
	mux      *http.ServeMux
	registry *registry.Service
	auth     *auth.Service
	snapshot Exporter
	logger   logging.Logger
	admins   map[string]struct{}
}

// NewServer wires the services into a routed HTTP server. adminSigners is
// the list of hex signer keys allowed to trigger snapshot exports.
func NewServer(address string, l logging.Logger, rs *registry.Service, as *auth.Service, ss Exporter, adminSigners []string) *Server {
	s := &Server{
		address:  address,
		mux:      http.NewServeMux(),
		registry: rs,
		auth:     as,
		snapshot: ss,
		logger:   l.With("module", "httpapi"),
		admins:   make(map[string]struct{}, len(adminSigners)),
	}

	for _, a := range adminSigners {
		s.admins[a] = struct{}{}
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/auth/challenge", s.handleChallenge)
	s.mux.HandleFunc("POST /v1/auth/token", s.handleToken)

	s.mux.HandleFunc("POST /v1/entries", s.requireSigner(s.handleRegister))
	s.mux.HandleFunc("GET /v1/entries/{username}", s.handleLookup)
	s.mux.HandleFunc("PUT /v1/entries/{username}/key", s.requireSigner(s.handleUpdateKey))

	s.mux.HandleFunc("POST /v1/admin/snapshot", s.requireSigner(s.requireAdmin(s.handleSnapshot)))

	s.mux.HandleFunc("GET /v1/ping", s.handlePing)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
