// Package cron runs the background maintenance jobs: cancelling abandoned
// batches and dropping idle per-owner locks.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tgshare/sharebot/internal/config"
	"github.com/tgshare/sharebot/pkg/services"
	"go.uber.org/zap"
)

type CronService struct {
	scheduler *cron.Cron
	batches   *services.BatchService
	cfg       *config.CronJobConfig
	logger    *zap.Logger
}

func NewCronService(batches *services.BatchService, cfg *config.CronJobConfig, logger *zap.Logger) *CronService {
	return &CronService{
		scheduler: cron.New(),
		batches:   batches,
		cfg:       cfg,
		logger:    logger.Named("cron"),
	}
}

// Run schedules the jobs and blocks until ctx is cancelled.
func (c *CronService) Run(ctx context.Context) error {
	if !c.cfg.Enable {
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := c.scheduler.AddFunc(every(c.cfg.StaleBatchInterval), func() {
		if _, err := c.batches.SweepStale(ctx, c.cfg.StaleBatchAge); err != nil {
			c.logger.Error("stale batch sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	_, err = c.scheduler.AddFunc(every(c.cfg.LockSweepInterval), func() {
		c.batches.Locks().Sweep(c.cfg.LockSweepIdle)
	})
	if err != nil {
		return err
	}

	c.scheduler.Start()
	c.logger.Info("background jobs scheduled",
		zap.Duration("stale_batch_interval", c.cfg.StaleBatchInterval),
		zap.Duration("lock_sweep_interval", c.cfg.LockSweepInterval))

	<-ctx.Done()
	stop := c.scheduler.Stop()
	<-stop.Done()
	return ctx.Err()
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
