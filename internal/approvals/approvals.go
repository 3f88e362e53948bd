package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/pagination"
)

// PendingChange is one undecided proposal with the rule it targets.
type PendingChange struct {
	RevisionID uuid.UUID        `json:"revisionId"`
	RuleID     uuid.UUID        `json:"ruleId"`
	ProductID  uuid.UUID        `json:"productId"`
	ProposedBy uuid.UUID        `json:"proposedBy"`
	ProposedAt time.Time        `json:"proposedAt"`
	Age        string           `json:"age"`
}

// Repository reads the pending-approval report data.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type pendingRow struct {
	RevisionID uuid.UUID
	RuleID     uuid.UUID
	ProductID  uuid.UUID
	ProposedBy uuid.UUID
	ProposedAt time.Time
}

// ListPending returns the tenant's undecided proposals, oldest first.
func (r *Repository) ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]pendingRow, error) {
	limit = pagination.NormalizeLimit(limit)
	var rows []pendingRow
	err := r.db.WithContext(ctx).
		Table("pricing_rule_revisions rev").
		Select("rev.id AS revision_id, rev.rule_id, rules.product_id, rev.proposed_by, rev.proposed_at").
		Joins("JOIN pricing_rules rules ON rules.id = rev.rule_id").
		Where("rev.tenant_id = ? AND rev.status = ?", tenantID, enums.ApprovalStatusPending).
		Order("rev.proposed_at ASC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}

// ListStalePending returns undecided proposals older than the cutoff across
// all tenants. Used by the stale-approvals report job.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.PricingRuleRevision, error) {
	var rows []models.PricingRuleRevision
	err := r.db.WithContext(ctx).
		Where("status = ? AND proposed_at < ?", enums.ApprovalStatusPending, cutoff).
		Order("proposed_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// Service exposes the pending-approvals report.
type Service interface {
	ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]PendingChange, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs an approvals service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("approvals repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]PendingChange, error) {
	rows, err := s.repo.ListPending(ctx, tenantID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending approvals")
	}
	changes := make([]PendingChange, 0, len(rows))
	for _, row := range rows {
		changes = append(changes, PendingChange{
			RevisionID: row.RevisionID,
			RuleID:     row.RuleID,
			ProductID:  row.ProductID,
			ProposedBy: row.ProposedBy,
			ProposedAt: row.ProposedAt,
			Age:        s.now().Sub(row.ProposedAt).Round(time.Minute).String(),
		})
	}
	return changes, nil
}
