package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/etfscope/internal/classifier"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/pkg/logger"
)

// UniverseJob refreshes the classified ETF universe
// ⭐ SSOT: Universe 갱신 스케줄은 이 Job에서만
type UniverseJob struct {
	source     contracts.UniverseSource
	classifier *classifier.Classifier
	schedule   string
	logger     *logger.Logger
	metrics    *metrics.Recorder

	mu        sync.RWMutex
	latest    []contracts.Instrument
	refreshed time.Time
}

// NewUniverseJob creates a new universe job
func NewUniverseJob(source contracts.UniverseSource, c *classifier.Classifier, schedule string, log *logger.Logger, rec *metrics.Recorder) *UniverseJob {
	return &UniverseJob{
		source:     source,
		classifier: c,
		schedule:   schedule,
		logger:     log,
		metrics:    rec,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (weekdays before the open by default)
func (j *UniverseJob) Schedule() string {
	return j.schedule
}

// Run lists every ETF, keeps the domestic equity ones and publishes the counts
func (j *UniverseJob) Run(ctx context.Context) error {
	universe, err := j.source.ListUniverse(ctx)
	if err != nil {
		return fmt.Errorf("list universe: %w", err)
	}
	if len(universe) == 0 {
		return fmt.Errorf("list universe: %w", contracts.ErrNoData)
	}

	kept, excluded := j.classifier.Filter(universe)

	byCategory := make(map[string]int, len(excluded))
	for cat, n := range excluded {
		byCategory[string(cat)] = n
	}
	j.metrics.SetUniverse(len(kept), byCategory)

	j.mu.Lock()
	j.latest = kept
	j.refreshed = time.Now()
	j.mu.Unlock()

	j.logger.WithFields(map[string]interface{}{
		"total":    len(universe),
		"in_scope": len(kept),
		"foreign":  excluded[classifier.Foreign],
		"bond":     excluded[classifier.Bond],
	}).Info("Universe refreshed")

	return nil
}

// Latest returns the in-scope instruments of the last successful run
func (j *UniverseJob) Latest() ([]contracts.Instrument, time.Time) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]contracts.Instrument(nil), j.latest...), j.refreshed
}
