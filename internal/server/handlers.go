package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/playerhub/internal/models"
	"github.com/woozymasta/playerhub/internal/vars"
)

// handleCreateAccount creates a player account.
// Body: {"first_name","last_name","username","password","ip_address","age"}
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.AccountFields
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.CreateAccount(req))
}

// handleSignIn signs a player in. Body: {"username","password","ip_address"}
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.SignIn(req.Username, req.Password, s.callerIP(r, req)))
}

// handleSignOut signs a player out. Body: {"username","ip_address"}
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.SignOut(req.Username, s.callerIP(r, req)))
}

// handleAdminSignIn signs the administrator in.
func (s *Server) handleAdminSignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.AdminSignIn(req.Username, req.Password, s.callerIP(r, req)))
}

// handleAdminSignOut signs the administrator out.
func (s *Server) handleAdminSignOut(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.AdminSignOut(req.Username, s.callerIP(r, req)))
}

// handleGlobalStatus runs one aggregation round and returns the merged report.
// The request context bounds the round if the caller disconnects.
func (s *Server) handleGlobalStatus(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	respondText(w, s.hub.AdminGetGlobalStatus(r.Context(), req.Username, req.Password, s.callerIP(r, req)))
}

// handleAudit lists recent audit entries of the local region.
// Query params: ?limit=100&region=EU
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		http.Error(w, "Audit storage disabled", http.StatusNotFound)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	region := s.region
	if v := r.URL.Query().Get("region"); v != "" {
		region = v
	}

	entries, err := s.audit.RecentAudit(region, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch audit entries")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// handleVersion returns build information.
func handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(vars.Info())
}

// decode reads a size-limited JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug().
			Err(err).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Str("path", r.URL.Path).
			Msg("Invalid JSON")

		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}

	return true
}

// callerIP prefers the IP declared in the request body over the connection address.
func (s *Server) callerIP(r *http.Request, req models.SessionRequest) string {
	if req.IPAddress != "" {
		return req.IPAddress
	}

	return GetRealIP(r, s.trustProxy)
}

// respondText writes an operation result as text/plain. Domain outcomes are always 200.
func respondText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, msg)
}
