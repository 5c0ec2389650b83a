package maintenance

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/playerhub/internal/config"
	"github.com/woozymasta/playerhub/internal/status"
)

type fakePruner struct {
	err    error
	cutoff time.Time
	calls  int
}

func (p *fakePruner) PruneAudit(cutoff time.Time) (int64, error) {
	p.calls++
	p.cutoff = cutoff
	return 3, p.err
}

type fakeCollector struct {
	deadline bool
}

func (c *fakeCollector) Collect(ctx context.Context) status.Report {
	_, c.deadline = ctx.Deadline()
	return status.Report{Round: "r1", Results: []status.Result{
		{Region: "NA", Text: "NA: Online: 1 Offline: 2"},
		{Region: "EU", Text: "EU: Online: 0 Offline: 3"},
	}}
}

func TestRunNoTask(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, Run(cfg, &fakePruner{}, &fakeCollector{}, &bytes.Buffer{}))
}

func TestRunAuditPrune(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.AuditPrune = 48 * time.Hour
	store := &fakePruner{}

	before := time.Now()
	assert.True(t, Run(cfg, store, &fakeCollector{}, &bytes.Buffer{}))
	assert.Equal(t, 1, store.calls)
	assert.WithinDuration(t, before.Add(-48*time.Hour), store.cutoff, time.Minute)
}

func TestRunAuditPruneWithoutStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.AuditPrune = time.Hour
	assert.True(t, Run(cfg, nil, &fakeCollector{}, &bytes.Buffer{}))

	store := &fakePruner{err: errors.New("locked")}
	assert.True(t, Run(cfg, store, &fakeCollector{}, &bytes.Buffer{}))
}

func TestRunProbe(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.Probe = true
	cfg.Status.Timeout = time.Second

	var out bytes.Buffer
	collector := &fakeCollector{}
	assert.True(t, Run(cfg, &fakePruner{}, collector, &out))
	assert.True(t, collector.deadline)
	assert.Equal(t, "NA: Online: 1 Offline: 2\nEU: Online: 0 Offline: 3\n", out.String())
}
