package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/momentum/internal/external/yahoo"
	"github.com/wonny/momentum/pkg/logger"
)

// MarketOverviewJob refreshes the market ETF snapshot
// ⭐ SSOT: 시장 개요 갱신 스케줄은 이 Job에서만
type MarketOverviewJob struct {
	store    *yahoo.OverviewStore
	schedule string
	logger   *logger.Logger
}

// NewMarketOverviewJob creates a new market overview job
func NewMarketOverviewJob(store *yahoo.OverviewStore, schedule string, log *logger.Logger) *MarketOverviewJob {
	if schedule == "" {
		schedule = "0 */15 * * * *"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &MarketOverviewJob{
		store:    store,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *MarketOverviewJob) Name() string {
	return "market_overview"
}

// Schedule returns the cron schedule (with seconds)
func (j *MarketOverviewJob) Schedule() string {
	return j.schedule
}

// Run fetches a new snapshot
func (j *MarketOverviewJob) Run(ctx context.Context) error {
	overview, err := j.store.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh market overview: %w", err)
	}

	j.logger.WithField("items", len(overview.Items)).Debug("Market overview job done")
	return nil
}
