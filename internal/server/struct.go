package server

import (
	"sync"
	"time"

	"github.com/woozymasta/playerhub/internal/hub"
	"github.com/woozymasta/playerhub/internal/models"
)

// AuditReader lists persisted audit entries.
type AuditReader interface {
	RecentAudit(region string, limit int) ([]models.AuditEntry, error)
}

// Server holds the dependencies and configuration required to serve the
// player and administrator control surface of one region.
type Server struct {
	// hub executes every player and administrator operation.
	hub *hub.Service

	// audit lists persisted audit entries. It is nil when SQLite auditing is disabled.
	audit AuditReader

	// shutdown stops background maintenance of the rate limiter.
	shutdown chan struct{}

	// closeOnce guards shutdown against double close.
	closeOnce sync.Once

	// region is the local region code, used to filter audit listings.
	region string

	// maxBody specifies the maximum allowed size (in bytes) for request bodies.
	maxBody int64

	// rateCount is the number of requests allowed per IP address within rateWindow.
	rateCount int

	// rateWindow is the time window for the per-IP rate limiter.
	rateWindow time.Duration

	// trustProxy makes GetRealIP honour X-Forwarded-For and CF-Connecting-IP.
	trustProxy bool
}
