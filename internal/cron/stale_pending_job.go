package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

const staleApprovalsJobName = "stale_approvals_report"

// stalePendingLister is the approvals surface this job depends on.
type stalePendingLister interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.PricingRuleRevision, error)
}

// StaleApprovalsJobParams collects the dependencies of the stale-approvals job.
type StaleApprovalsJobParams struct {
	Repo   stalePendingLister
	Logger *logger.Logger
	MaxAge time.Duration
}

// StaleApprovalsJob surfaces proposals that have sat undecided for too long.
type StaleApprovalsJob struct {
	repo   stalePendingLister
	logg   *logger.Logger
	maxAge time.Duration
	now    func() time.Time
}

// NewStaleApprovalsJob validates the params and builds the job.
func NewStaleApprovalsJob(params StaleApprovalsJobParams) (*StaleApprovalsJob, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("approvals repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.MaxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	return &StaleApprovalsJob{
		repo:   params.Repo,
		logg:   params.Logger,
		maxAge: params.MaxAge,
		now:    time.Now,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *StaleApprovalsJob) Name() string {
	return staleApprovalsJobName
}

// Run logs every pending proposal older than the configured max age so
// operators can chase down forgotten approvals.
func (j *StaleApprovalsJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.maxAge)
	stale, err := j.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing stale pending revisions: %w", err)
	}
	if len(stale) == 0 {
		j.logg.Info(ctx, "no stale pending proposals")
		return nil
	}
	for _, rev := range stale {
		revCtx := j.logg.WithFields(ctx, map[string]any{
			"revision_id": rev.ID.String(),
			"rule_id":     rev.RuleID.String(),
			"tenant_id":   rev.TenantID.String(),
			"proposed_by": rev.ProposedBy.String(),
			"proposed_at": rev.ProposedAt.Format(time.RFC3339),
			"age":         j.now().Sub(rev.ProposedAt).Round(time.Minute).String(),
		})
		j.logg.Warn(revCtx, "pending price change awaiting decision past threshold")
	}
	countCtx := j.logg.WithField(ctx, "count", len(stale))
	j.logg.Info(countCtx, "stale approvals report complete")
	return nil
}
