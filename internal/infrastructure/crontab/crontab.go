package crontab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mileusna/crontab"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
	"jan-server/services/conversation-api/internal/infrastructure/metrics"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

const (
	DefaultReconcileInterval = 10 // in minutes
	DefaultReconcileBatch    = 200
	CronJobTimeout           = 5 * time.Minute // Timeout for each cron job execution
)

// PointerReconciler repairs current-node pointers left behind by interrupted
// rewinds or lost background writes.
type PointerReconciler interface {
	ReconcilePointers(ctx context.Context, batchSize int) (conversation.ReconcileResult, error)
}

type Crontab struct {
	ctab       *crontab.Crontab
	reconciler PointerReconciler
	running    sync.Mutex
}

func NewCrontab(reconciler *conversation.ConversationService) *Crontab {
	return newCrontab(reconciler)
}

func newCrontab(reconciler PointerReconciler) *Crontab {
	return &Crontab{
		ctab:       crontab.New(),
		reconciler: reconciler,
	}
}

// Run schedules the jobs and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context, cfg *config.Config) error {
	log := logger.GetLogger()

	if cfg.PointerReconcileEnabled {
		interval := cfg.PointerReconcileIntervalMinutes
		if interval <= 0 {
			interval = DefaultReconcileInterval
		}
		batch := cfg.PointerReconcileBatchSize
		if batch <= 0 {
			batch = DefaultReconcileBatch
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.reconcile(jobCtx, batch)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add pointer reconcile job")
		}
		log.Info().Msgf("Pointer reconcile scheduled: every %d minute(s)", interval)
	}

	// Schedule environment reload job
	if err := c.ctab.AddJob("* * * * *", func() {
		if _, err := config.Load(); err != nil {
			log.Warn().Err(err).Msg("env reload failed")
		}
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add env reload job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// reconcile skips the pass when the previous one is still running.
func (c *Crontab) reconcile(ctx context.Context, batch int) {
	log := logger.GetLogger()
	if !c.running.TryLock() {
		log.Debug().Msg("Pointer reconcile still running, skipping")
		return
	}
	defer c.running.Unlock()

	result, err := c.reconciler.ReconcilePointers(ctx, batch)
	metrics.RecordReconcile(result.DanglingCleared, result.Settled, result.Failed)
	if err != nil {
		log.Error().Err(err).Msg("Pointer reconcile failed")
		return
	}
	if result.DanglingCleared+result.Settled+result.Failed > 0 {
		log.Info().
			Int("dangling_cleared", result.DanglingCleared).
			Int("settled", result.Settled).
			Int("failed", result.Failed).
			Msg("Pointer reconcile finished")
	}
}
