package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"soulbound.backend/pkg/logger"
)

const (
	defaultReconcileInterval  = time.Minute
	defaultReconcileBatchSize = 50
)

// PendingReconciler records credentials for pending claims found on chain.
type PendingReconciler interface {
	ReconcilePending(ctx context.Context, limit int) (int, error)
}

// Reconcilers runs each reconciler with the same limit and sums the results.
// A failing reconciler does not stop the others.
type Reconcilers []PendingReconciler

func (rs Reconcilers) ReconcilePending(ctx context.Context, limit int) (int, error) {
	total := 0
	var errs []error
	for _, r := range rs {
		n, err := r.ReconcilePending(ctx, limit)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// PendingCredentialJob periodically recovers credentials that were minted but
// never recorded, such as mints whose confirmation timed out.
type PendingCredentialJob struct {
	ledger    PendingReconciler
	interval  time.Duration
	batchSize int
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewPendingCredentialJob(ledger PendingReconciler, interval time.Duration, batchSize int) *PendingCredentialJob {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	return &PendingCredentialJob{
		ledger:    ledger,
		interval:  interval,
		batchSize: batchSize,
		stop:      make(chan struct{}),
	}
}

func (j *PendingCredentialJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting pending credential reconciliation job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "Pending credential job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Pending credential job stopped")
			return
		case <-ticker.C:
			j.reconcile(ctx)
		}
	}
}

func (j *PendingCredentialJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *PendingCredentialJob) reconcile(ctx context.Context) {
	n, err := j.ledger.ReconcilePending(ctx, j.batchSize)
	if err != nil {
		logger.Error(ctx, "Error reconciling pending credentials", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "Reconciled pending credentials", zap.Int("count", n))
	}
}
