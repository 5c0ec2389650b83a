// Package maintenance provides one-shot tasks that run instead of the region server.
package maintenance

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/playerhub/internal/config"
	"github.com/woozymasta/playerhub/internal/hub"
)

// Pruner deletes old audit records.
type Pruner interface {
	PruneAudit(cutoff time.Time) (int64, error)
}

// Run checks if any maintenance flags are set and executes the corresponding task.
// Returns true if a task was executed, meaning the program should exit.
// store may be nil when SQLite auditing is disabled.
func Run(cfg *config.Config, store Pruner, collector hub.Collector, out io.Writer) bool {
	if cfg.Maintenance.AuditPrune > 0 {
		pruneAudit(store, cfg.Maintenance.AuditPrune)
		return true
	}

	if cfg.Maintenance.Probe {
		probe(collector, cfg.Status.Timeout, out)
		return true
	}

	return false
}

func pruneAudit(store Pruner, age time.Duration) {
	if store == nil {
		log.Error().Msg("Audit database is disabled, nothing to prune")
		return
	}

	cutoff := time.Now().Add(-age)
	log.Info().Time("cutoff", cutoff).Msg("Pruning audit records...")

	count, err := store.PruneAudit(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune audit records")
		return
	}

	log.Info().Int64("deleted", count).Msg("Prune finished")
}

// probe runs a single aggregation round bounded by twice the peer timeout.
func probe(collector hub.Collector, timeout time.Duration, out io.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()

	report := collector.Collect(ctx)
	log.Info().Str("round", report.Round).Int("regions", len(report.Results)).Msg("Probe finished")

	if _, err := fmt.Fprintln(out, report.String()); err != nil {
		log.Error().Err(err).Msg("Failed to print probe report")
	}
}
