package scheduler

import (
	"context"
	"fmt"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
)

const pingJobName = "marketplace-ping"

type pingRunner interface {
	Ping(ctx context.Context)
}

type latestFinder interface {
	FindLatest(ctx context.Context) (*models.MarketplaceResponse, error)
}

type broadcaster interface {
	BroadcastNewResponse(ctx context.Context, record *models.MarketplaceResponse)
	BroadcastUpdatedStats(ctx context.Context)
}

// PingJob runs one ping cycle: issue the outbound ping, then push the freshly
// persisted record and recomputed stats to live subscribers.
type PingJob struct {
	pinger pingRunner
	store  latestFinder
	hub    broadcaster
}

// NewPingJob wires the ping pipeline to the live hub.
func NewPingJob(pinger pingRunner, store latestFinder, hub broadcaster) *PingJob {
	return &PingJob{pinger: pinger, store: store, hub: hub}
}

// Name identifies the job in logs and metrics.
func (j *PingJob) Name() string {
	return pingJobName
}

// Run executes one cycle. The ping itself never fails; only a store read
// error surfaces, so the scheduler can count it.
func (j *PingJob) Run(ctx context.Context) error {
	j.pinger.Ping(ctx)

	latest, err := j.store.FindLatest(ctx)
	if err != nil {
		return fmt.Errorf("load latest record: %w", err)
	}
	if latest == nil {
		return nil
	}

	j.hub.BroadcastNewResponse(ctx, latest)
	j.hub.BroadcastUpdatedStats(ctx)
	return nil
}
