package audit

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/playerhub/internal/models"
)

// Store persists audit entries.
type Store interface {
	InsertAudit(entry models.AuditEntry) error
}

// Locator resolves an IP address to an ISO country code, or "" when unknown.
type Locator interface {
	GetCountryCode(ip string) string
}

// StoreSink writes records to a Store, enriching IP sources with a country code.
type StoreSink struct {
	store  Store
	geo    Locator
	region string
}

// NewStoreSink creates a StoreSink. geo may be nil.
func NewStoreSink(store Store, geo Locator, region string) *StoreSink {
	return &StoreSink{store: store, geo: geo, region: region}
}

// Record implements Sink. Write failures are logged and swallowed.
func (s *StoreSink) Record(message, source string) {
	entry := models.AuditEntry{
		CreatedAt: time.Now().UTC(),
		Region:    s.region,
		Source:    source,
		Message:   message,
	}
	if s.geo != nil {
		entry.CountryCode = s.geo.GetCountryCode(source)
	}

	if err := s.store.InsertAudit(entry); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Failed to persist audit record")
	}
}
