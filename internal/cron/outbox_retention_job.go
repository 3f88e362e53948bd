package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

const outboxRetentionJobName = "outbox_retention"

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// publishedEventDeleter is the outbox surface this job depends on.
type publishedEventDeleter interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams collects the dependencies of the retention job.
type OutboxRetentionJobParams struct {
	DB        txRunner
	Repo      publishedEventDeleter
	Logger    *logger.Logger
	Retention time.Duration
}

// OutboxRetentionJob prunes outbox events that were published long enough ago.
type OutboxRetentionJob struct {
	db        txRunner
	repo      publishedEventDeleter
	logg      *logger.Logger
	retention time.Duration
	now       func() time.Time
}

// NewOutboxRetentionJob validates the params and builds the job.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (*OutboxRetentionJob, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &OutboxRetentionJob{
		db:        params.DB,
		repo:      params.Repo,
		logg:      params.Logger,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *OutboxRetentionJob) Name() string {
	return outboxRetentionJobName
}

// Run deletes published outbox events older than the retention window.
func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		deleted, txErr = j.repo.DeletePublishedBefore(ctx, tx, cutoff)
		return txErr
	})
	if err != nil {
		return fmt.Errorf("pruning published outbox events: %w", err)
	}

	doneCtx := j.logg.WithFields(ctx, map[string]any{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	j.logg.Info(doneCtx, "outbox retention sweep complete")
	return nil
}
