package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/etfscope/internal/market"
	"github.com/wonny/etfscope/pkg/logger"
)

// Snapshotter builds a market dashboard snapshot
type Snapshotter interface {
	Snapshot(ctx context.Context) market.Snapshot
}

// MarketSnapshotJob logs the market dashboard after the close
type MarketSnapshotJob struct {
	dashboard Snapshotter
	logger    *logger.Logger
}

// NewMarketSnapshotJob creates a new market snapshot job
func NewMarketSnapshotJob(d Snapshotter, log *logger.Logger) *MarketSnapshotJob {
	return &MarketSnapshotJob{dashboard: d, logger: log}
}

// Name returns the job name
func (j *MarketSnapshotJob) Name() string {
	return "market_snapshot"
}

// Schedule returns the cron schedule (weekdays 4 PM, after the close)
func (j *MarketSnapshotJob) Schedule() string {
	return "0 0 16 * * 1-5"
}

// Run builds the snapshot; it fails only when every item failed
func (j *MarketSnapshotJob) Run(ctx context.Context) error {
	snap := j.dashboard.Snapshot(ctx)

	fields := map[string]interface{}{"ref_date": snap.RefDate}
	failed := 0
	for _, q := range snap.Quotes {
		fields[q.Name] = q.String()
		if q.Status == market.StatusError {
			failed++
		}
	}

	if len(snap.Quotes) > 0 && failed == len(snap.Quotes) {
		return fmt.Errorf("market snapshot: all %d items failed", failed)
	}

	j.logger.WithFields(fields).Info("Market snapshot")
	return nil
}
