package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// Repository wires together pricing-rule persistence: live rules, staged
// revisions, and the quote audit trail.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FetchRulesForProduct returns every rule row for the product regardless of
// active or approval state. Filtering is the resolver's job so that the
// ranking logic stays testable without touching persistence.
func (r *Repository) FetchRulesForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]models.PricingRule, error) {
	var rules []models.PricingRule
	err := r.db.WithContext(ctx).
		Preload("PriceTier").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Find(&rules).
		Error
	return rules, err
}

// FindRuleByID loads one rule scoped to the tenant.
func (r *Repository) FindRuleByID(ctx context.Context, tenantID, ruleID uuid.UUID) (*models.PricingRule, error) {
	var rule models.PricingRule
	err := r.db.WithContext(ctx).
		Preload("PriceTier").
		First(&rule, "tenant_id = ? AND id = ?", tenantID, ruleID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
		}
		return nil, err
	}
	return &rule, nil
}

// CreateRule inserts a new rule row. Unique-scope collisions surface as a
// CONFLICT so the caller can resubmit with corrected scoping fields.
func (r *Repository) CreateRule(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a rule already covers this scope and quantity band")
		}
		return nil, err
	}
	return rule, nil
}

// UpdateRule saves an existing rule row; a missing id is NOT_FOUND.
func (r *Repository) UpdateRule(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if rule.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PricingRule{}).
		Where("tenant_id = ? AND id = ?", rule.TenantID, rule.ID).
		Count(&count).
		Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
	}
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a rule already covers this scope and quantity band")
		}
		return nil, err
	}
	return rule, nil
}

// DeleteRule physically removes a rule row. Callers enforce the standard-rule
// and audit-trail policies first.
func (r *Repository) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, ruleID).
		Delete(&models.PricingRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
	}
	return nil
}

// MarkRevisionStatus flips a revision from pending to the given terminal
// state, stamping the decider. Returns the number of rows flipped so the
// caller can detect a lost race without a second read.
func (r *Repository) MarkRevisionStatus(ctx context.Context, revisionID uuid.UUID, status enums.ApprovalStatus, deciderID uuid.UUID, reason *string) (int64, error) {
	updates := map[string]any{
		"status":     status,
		"decided_by": deciderID,
		"decided_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}
	if reason != nil {
		updates["reason"] = *reason
	}
	result := r.db.WithContext(ctx).
		Model(&models.PricingRuleRevision{}).
		Where("id = ? AND status = ?", revisionID, enums.ApprovalStatusPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CountQuoteEventsForRule reports how many historical quotes reference the rule.
func (r *Repository) CountQuoteEventsForRule(ctx context.Context, ruleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuoteEvent{}).
		Where("rule_id = ?", ruleID).
		Count(&count).
		Error
	return count, err
}

// CreateRevision stages a proposed change as a shadow row.
func (r *Repository) CreateRevision(ctx context.Context, revision *models.PricingRuleRevision) (*models.PricingRuleRevision, error) {
	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(revision).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "rule already has a pending change")
		}
		return nil, err
	}
	return revision, nil
}

// FindPendingRevision loads the undecided revision for a rule, if any.
func (r *Repository) FindPendingRevision(ctx context.Context, ruleID uuid.UUID) (*models.PricingRuleRevision, error) {
	var revision models.PricingRuleRevision
	err := r.db.WithContext(ctx).
		First(&revision, "rule_id = ? AND status = ?", ruleID, enums.ApprovalStatusPending).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending change for rule")
		}
		return nil, err
	}
	return &revision, nil
}

// FindBranchByID loads one branch scoped to the tenant.
func (r *Repository) FindBranchByID(ctx context.Context, tenantID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		First(&branch, "tenant_id = ? AND id = ?", tenantID, branchID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, err
	}
	return &branch, nil
}

// FindPriceTierByID loads one regional price tier scoped to the tenant.
func (r *Repository) FindPriceTierByID(ctx context.Context, tenantID, priceTierID uuid.UUID) (*models.PriceTier, error) {
	var tier models.PriceTier
	err := r.db.WithContext(ctx).
		First(&tier, "tenant_id = ? AND id = ?", tenantID, priceTierID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price tier not found")
		}
		return nil, err
	}
	return &tier, nil
}

// InsertQuoteEvent records one resolved quote for the audit surface.
func (r *Repository) InsertQuoteEvent(ctx context.Context, event *models.QuoteEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}
