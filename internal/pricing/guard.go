package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/auth"
	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/outbox"
)

// ChangeSet carries the mutable rule fields for a proposed change. Nil means
// "leave the live value alone".
type ChangeSet struct {
	Price              *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	MinQuantity        *int
	MaxQuantity        *int
	StartDate          *time.Time
	EndDate            *time.Time
	Priority           *int
	IsActive           *bool
}

func (c ChangeSet) isEmpty() bool {
	return c.Price == nil &&
		c.DiscountAmount == nil &&
		c.DiscountPercentage == nil &&
		c.MinQuantity == nil &&
		c.MaxQuantity == nil &&
		c.StartDate == nil &&
		c.EndDate == nil &&
		c.Priority == nil &&
		c.IsActive == nil
}

// Guard enforces the change-control policy on standard rules: branch-level
// writers cannot silently override an HQ-locked price, and every transition
// through the approval state machine is atomic and audited.
type Guard struct {
	repo     *Repository
	dbClient *db.Client
	outbox   *outbox.Service
	logg     *logger.Logger
}

// NewGuard constructs a guard instance.
func NewGuard(repo *Repository, dbClient *db.Client, outboxSvc *outbox.Service, logg *logger.Logger) (*Guard, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Guard{repo: repo, dbClient: dbClient, outbox: outboxSvc, logg: logg}, nil
}

// ProposeChange routes a rule mutation through change control. Non-standard
// rules, and any rule touched by an HQ actor, take the fast path and apply
// immediately. A standard rule touched by a branch actor is staged as a
// pending revision and the live values stay untouched until approval.
func (g *Guard) ProposeChange(ctx context.Context, tenantID, ruleID uuid.UUID, change ChangeSet, actor *auth.AccessTokenClaims) (*models.PricingRule, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}
	if change.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change set is empty")
	}
	if err := validateChange(change); err != nil {
		return nil, err
	}

	rule, err := g.repo.FindRuleByID(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}

	if !rule.IsStandard || actor.HasHQAuthority() {
		return g.applyDirect(ctx, rule, change, actor)
	}
	return g.stage(ctx, rule, change, actor)
}

// applyDirect applies the change to the live rule in one transaction.
func (g *Guard) applyDirect(ctx context.Context, rule *models.PricingRule, change ChangeSet, actor *auth.AccessTokenClaims) (*models.PricingRule, error) {
	if err := g.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := g.repo.WithTx(tx)

		applyChange(rule, change)
		if _, err := txRepo.UpdateRule(ctx, rule); err != nil {
			return err
		}

		return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleUpdated,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   rule.ID,
			Actor:         actorRef(actor),
			Data:          NewRuleDTO(rule),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply rule change")
	}
	return rule, nil
}

// stage records the change as a pending revision. The live row keeps its
// values and stays resolvable at the old price; pendingness lives on the
// revision so the resolver never stops serving an established rule.
func (g *Guard) stage(ctx context.Context, rule *models.PricingRule, change ChangeSet, actor *auth.AccessTokenClaims) (*models.PricingRule, error) {
	if _, err := g.repo.FindPendingRevision(ctx, rule.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rule already has a pending change")
	} else if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	now := time.Now()
	if err := g.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := g.repo.WithTx(tx)

		revision := &models.PricingRuleRevision{
			TenantID:           rule.TenantID,
			RuleID:             rule.ID,
			Status:             enums.ApprovalStatusPending,
			Price:              change.Price,
			DiscountAmount:     change.DiscountAmount,
			DiscountPercentage: change.DiscountPercentage,
			MinQuantity:        change.MinQuantity,
			MaxQuantity:        change.MaxQuantity,
			StartDate:          change.StartDate,
			EndDate:            change.EndDate,
			Priority:           change.Priority,
			IsActive:           change.IsActive,
			ProposedBy:         actor.ActorID,
			ProposedAt:         now,
		}
		if _, err := txRepo.CreateRevision(ctx, revision); err != nil {
			return err
		}

		rule.RequiresApproval = true
		rule.LockedBy = &actor.ActorID
		rule.LockedAt = &now
		if _, err := txRepo.UpdateRule(ctx, rule); err != nil {
			return err
		}

		return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleChangeProposed,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   rule.ID,
			Actor:         actorRef(actor),
			Data:          NewRevisionDTO(revision),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stage rule change")
	}

	logCtx := g.logg.WithFields(ctx, map[string]any{
		"rule_id":     rule.ID.String(),
		"proposed_by": actor.ActorID.String(),
	})
	g.logg.Info(logCtx, "rule change staged for approval")
	return rule, nil
}

// Approve merges the staged revision into the live rule. The revision flip
// carries an optimistic pending check inside the same transaction, so a
// concurrent approve or reject loses with a STATE_CONFLICT instead of
// double-applying.
func (g *Guard) Approve(ctx context.Context, tenantID, ruleID uuid.UUID, approver *auth.AccessTokenClaims) (*models.PricingRule, error) {
	if approver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}
	if !approver.HasHQAuthority() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "approving a rule change requires HQ authority")
	}

	var approved *models.PricingRule
	if err := g.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := g.repo.WithTx(tx)

		revision, err := g.pendingRevision(ctx, txRepo, tenantID, ruleID, "approve")
		if err != nil {
			return err
		}

		flipped, err := txRepo.MarkRevisionStatus(ctx, revision.ID, enums.ApprovalStatusApproved, approver.ActorID, nil)
		if err != nil {
			return err
		}
		if flipped == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rule has no pending change to approve")
		}

		rule, err := txRepo.FindRuleByID(ctx, tenantID, ruleID)
		if err != nil {
			return err
		}
		now := time.Now()
		mergeRevision(rule, revision)
		status := enums.ApprovalStatusApproved
		rule.ApprovalStatus = &status
		rule.ApprovedBy = &approver.ActorID
		rule.ApprovedAt = &now
		rule.LockedBy = nil
		rule.LockedAt = nil
		if _, err := txRepo.UpdateRule(ctx, rule); err != nil {
			return err
		}

		revision.Status = enums.ApprovalStatusApproved
		revision.DecidedBy = &approver.ActorID
		revision.DecidedAt = &now

		approved = rule
		return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleChangeApproved,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   rule.ID,
			Actor:         actorRef(approver),
			Data:          NewRuleDTO(rule),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve rule change")
	}
	return approved, nil
}

// Reject discards the staged revision; live values remain unchanged.
func (g *Guard) Reject(ctx context.Context, tenantID, ruleID uuid.UUID, approver *auth.AccessTokenClaims, reason string) (*models.PricingRule, error) {
	if approver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}
	if !approver.HasHQAuthority() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "rejecting a rule change requires HQ authority")
	}

	var rejected *models.PricingRule
	if err := g.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := g.repo.WithTx(tx)

		revision, err := g.pendingRevision(ctx, txRepo, tenantID, ruleID, "reject")
		if err != nil {
			return err
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		flipped, err := txRepo.MarkRevisionStatus(ctx, revision.ID, enums.ApprovalStatusRejected, approver.ActorID, reasonPtr)
		if err != nil {
			return err
		}
		if flipped == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rule has no pending change to reject")
		}

		now := time.Now()
		revision.Status = enums.ApprovalStatusRejected
		revision.DecidedBy = &approver.ActorID
		revision.DecidedAt = &now
		revision.Reason = reasonPtr

		rule, err := txRepo.FindRuleByID(ctx, tenantID, ruleID)
		if err != nil {
			return err
		}
		status := enums.ApprovalStatusRejected
		rule.ApprovalStatus = &status
		rule.LockedBy = nil
		rule.LockedAt = nil
		if _, err := txRepo.UpdateRule(ctx, rule); err != nil {
			return err
		}
		rejected = rule

		return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleChangeRejected,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   rule.ID,
			Actor:         actorRef(approver),
			Data:          NewRevisionDTO(revision),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject rule change")
	}
	return rejected, nil
}

// pendingRevision loads the undecided revision for the rule. A missing rule
// is NOT_FOUND; an existing rule with nothing staged is a STATE_CONFLICT.
func (g *Guard) pendingRevision(ctx context.Context, txRepo *Repository, tenantID, ruleID uuid.UUID, verb string) (*models.PricingRuleRevision, error) {
	revision, err := txRepo.FindPendingRevision(ctx, ruleID)
	if err == nil {
		return revision, nil
	}
	if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
		if _, findErr := txRepo.FindRuleByID(ctx, tenantID, ruleID); findErr != nil {
			return nil, findErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("rule has no pending change to %s", verb))
	}
	return nil, err
}

// applyChange copies set fields from the change onto the live rule.
func applyChange(rule *models.PricingRule, change ChangeSet) {
	if change.Price != nil {
		rule.Price = *change.Price
	}
	if change.DiscountAmount != nil {
		rule.DiscountAmount = change.DiscountAmount
	}
	if change.DiscountPercentage != nil {
		rule.DiscountPercentage = change.DiscountPercentage
	}
	if change.MinQuantity != nil {
		rule.MinQuantity = *change.MinQuantity
	}
	if change.MaxQuantity != nil {
		rule.MaxQuantity = change.MaxQuantity
	}
	if change.StartDate != nil {
		rule.StartDate = change.StartDate
	}
	if change.EndDate != nil {
		rule.EndDate = change.EndDate
	}
	if change.Priority != nil {
		rule.Priority = *change.Priority
	}
	if change.IsActive != nil {
		rule.IsActive = *change.IsActive
	}
}

// mergeRevision applies an approved revision's staged values onto the rule.
func mergeRevision(rule *models.PricingRule, revision *models.PricingRuleRevision) {
	applyChange(rule, ChangeSet{
		Price:              revision.Price,
		DiscountAmount:     revision.DiscountAmount,
		DiscountPercentage: revision.DiscountPercentage,
		MinQuantity:        revision.MinQuantity,
		MaxQuantity:        revision.MaxQuantity,
		StartDate:          revision.StartDate,
		EndDate:            revision.EndDate,
		Priority:           revision.Priority,
		IsActive:           revision.IsActive,
	})
}

func actorRef(actor *auth.AccessTokenClaims) *outbox.ActorRef {
	if actor == nil {
		return nil
	}
	return &outbox.ActorRef{
		ActorID:  actor.ActorID,
		TenantID: actor.TenantID,
		Role:     actor.Role.String(),
	}
}
