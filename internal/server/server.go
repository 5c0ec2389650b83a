// Package server implements the HTTP control surface, middleware, and request
// handlers through which players and administrators reach a region server.
package server

import (
	"net/http"

	"github.com/woozymasta/playerhub/internal/config"
	"github.com/woozymasta/playerhub/internal/hub"
)

// New creates a Server for svc. audit may be nil.
func New(svc *hub.Service, audit AuditReader, cfg *config.Config) *Server {
	return &Server{
		hub:        svc,
		audit:      audit,
		region:     svc.Region().Code,
		maxBody:    cfg.Server.MaxBodySize,
		trustProxy: cfg.Server.TrustProxy,
		rateCount:  cfg.RateLimit.Count,
		rateWindow: cfg.RateLimit.Window,
		shutdown:   make(chan struct{}),
	}
}

// Close stops background goroutines started by Run.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.shutdown) })
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/accounts", http.HandlerFunc(s.handleCreateAccount))
	mux.Handle("POST /api/sign-in", http.HandlerFunc(s.handleSignIn))
	mux.Handle("POST /api/sign-out", http.HandlerFunc(s.handleSignOut))

	mux.Handle("POST /api/admin/sign-in", http.HandlerFunc(s.handleAdminSignIn))
	mux.Handle("POST /api/admin/sign-out", http.HandlerFunc(s.handleAdminSignOut))
	mux.Handle("POST /api/admin/status", http.HandlerFunc(s.handleGlobalStatus))
	mux.Handle("GET /api/admin/audit", AdminBasicAuthMiddleware(http.HandlerFunc(s.handleAudit)))

	mux.Handle("GET /api/version", http.HandlerFunc(handleVersion))

	return s.LoggingMiddleware(s.RateLimitMiddleware(mux))
}
