package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/auth"
	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/outbox"
)

// Service exposes pricing rule management and quoting.
type Service interface {
	CreateRule(ctx context.Context, tenantID uuid.UUID, input CreateRuleInput, actor *auth.AccessTokenClaims) (*RuleDTO, error)
	GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*RuleDTO, error)
	ListRulesForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]RuleDTO, error)
	UpdateRule(ctx context.Context, tenantID, ruleID uuid.UUID, change ChangeSet, actor *auth.AccessTokenClaims) (*RuleDTO, error)
	DeactivateRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) (*RuleDTO, error)
	DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) error
	Approve(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) (*RuleDTO, error)
	Reject(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims, reason string) (*RuleDTO, error)
	Quote(ctx context.Context, rc ResolutionContext) (*QuoteDTO, error)
}

// CreateRuleInput holds the validated payload to create a rule.
type CreateRuleInput struct {
	ProductID          uuid.UUID
	PriceType          enums.PriceType
	TierID             *uuid.UUID
	BranchID           *uuid.UUID
	PriceTierID        *uuid.UUID
	Price              decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	MinQuantity        int
	MaxQuantity        *int
	StartDate          *time.Time
	EndDate            *time.Time
	IsActive           bool
	Priority           int
	IsStandard         bool
}

type productReader interface {
	FindByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
}

// service implements the pricing service.
type service struct {
	repo     *Repository
	resolver *Resolver
	guard    *Guard
	dbClient *db.Client
	outbox   *outbox.Service
	products productReader
	logg     *logger.Logger
}

// NewService constructs a pricing service instance.
func NewService(repo *Repository, resolver *Resolver, guard *Guard, dbClient *db.Client, outboxSvc *outbox.Service, products productReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if guard == nil {
		return nil, fmt.Errorf("guard required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		resolver: resolver,
		guard:    guard,
		dbClient: dbClient,
		outbox:   outboxSvc,
		products: products,
		logg:     logg,
	}, nil
}

// CreateRule inserts a new rule. Creating a standard (HQ-locked) rule
// requires HQ authority.
func (s *service) CreateRule(ctx context.Context, tenantID uuid.UUID, input CreateRuleInput, actor *auth.AccessTokenClaims) (*RuleDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}
	if input.IsStandard && !actor.HasHQAuthority() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "creating a standard rule requires HQ authority")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.products.FindByID(ctx, tenantID, input.ProductID); err != nil {
		return nil, err
	}

	rule := &models.PricingRule{
		TenantID:           tenantID,
		ProductID:          input.ProductID,
		PriceType:          input.PriceType,
		TierID:             input.TierID,
		BranchID:           input.BranchID,
		PriceTierID:        input.PriceTierID,
		Price:              input.Price,
		DiscountAmount:     input.DiscountAmount,
		DiscountPercentage: input.DiscountPercentage,
		MinQuantity:        input.MinQuantity,
		MaxQuantity:        input.MaxQuantity,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		IsActive:           input.IsActive,
		Priority:           input.Priority,
		IsStandard:         input.IsStandard,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		created, err := txRepo.CreateRule(ctx, rule)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleCreated,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   created.ID,
			Actor:         actorRef(actor),
			Data:          NewRuleDTO(created),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pricing rule")
	}
	return NewRuleDTO(rule), nil
}

// GetRule loads one rule.
func (s *service) GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*RuleDTO, error) {
	rule, err := s.repo.FindRuleByID(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	return NewRuleDTO(rule), nil
}

// ListRulesForProduct returns every rule row for the product.
func (s *service) ListRulesForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]RuleDTO, error) {
	rules, err := s.repo.FetchRulesForProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rules for product")
	}
	dtos := make([]RuleDTO, 0, len(rules))
	for i := range rules {
		dtos = append(dtos, *NewRuleDTO(&rules[i]))
	}
	return dtos, nil
}

// UpdateRule routes the mutation through change control.
func (s *service) UpdateRule(ctx context.Context, tenantID, ruleID uuid.UUID, change ChangeSet, actor *auth.AccessTokenClaims) (*RuleDTO, error) {
	rule, err := s.guard.ProposeChange(ctx, tenantID, ruleID, change, actor)
	if err != nil {
		return nil, err
	}
	return NewRuleDTO(rule), nil
}

// DeactivateRule is the retirement path: the row is kept for the audit trail.
func (s *service) DeactivateRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) (*RuleDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}

	rule, err := s.repo.FindRuleByID(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.IsStandard && !actor.HasHQAuthority() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "deactivating a standard rule requires HQ authority")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rule.IsActive = false
		if _, err := txRepo.UpdateRule(ctx, rule); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleDeactivated,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   rule.ID,
			Actor:         actorRef(actor),
			Data:          NewRuleDTO(rule),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate pricing rule")
	}
	return NewRuleDTO(rule), nil
}

// DeleteRule physically removes a rule. Refused for standard rules without HQ
// authority, and for any rule already referenced by historical quotes.
func (s *service) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor claims required")
	}

	rule, err := s.repo.FindRuleByID(ctx, tenantID, ruleID)
	if err != nil {
		return err
	}
	if rule.IsStandard && !actor.HasHQAuthority() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "deleting a standard rule requires HQ authority")
	}

	referenced, err := s.repo.CountQuoteEventsForRule(ctx, ruleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quote references")
	}
	if referenced > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "rule is referenced by historical quotes, deactivate it instead")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteRule(ctx, tenantID, ruleID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleDeleted,
			AggregateType: enums.AggregatePricingRule,
			AggregateID:   ruleID,
			Actor:         actorRef(actor),
			Data:          NewRuleDTO(rule),
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pricing rule")
	}
	return nil
}

// Approve delegates to the guard.
func (s *service) Approve(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims) (*RuleDTO, error) {
	rule, err := s.guard.Approve(ctx, tenantID, ruleID, actor)
	if err != nil {
		return nil, err
	}
	return NewRuleDTO(rule), nil
}

// Reject delegates to the guard.
func (s *service) Reject(ctx context.Context, tenantID, ruleID uuid.UUID, actor *auth.AccessTokenClaims, reason string) (*RuleDTO, error) {
	rule, err := s.guard.Reject(ctx, tenantID, ruleID, actor, reason)
	if err != nil {
		return nil, err
	}
	return NewRuleDTO(rule), nil
}

// Quote resolves the context and falls back to the product's list price when
// no rule applies. Every quote is recorded for the audit surface.
func (s *service) Quote(ctx context.Context, rc ResolutionContext) (*QuoteDTO, error) {
	resolution, err := s.resolver.Resolve(ctx, rc)
	if err != nil {
		return nil, err
	}

	quote := &QuoteDTO{
		ProductID: rc.ProductID,
		Quantity:  rc.Quantity,
		Source:    quoteSource(resolution),
		Clamped:   resolution.Clamped,
	}

	if resolution.Applicable {
		quote.UnitPrice = resolution.UnitPrice
		ruleID := resolution.Rule.ID
		quote.RuleID = &ruleID
	} else {
		product, err := s.products.FindByID(ctx, rc.TenantID, rc.ProductID)
		if err != nil {
			return nil, err
		}
		quote.UnitPrice = product.ListPrice.Round(2)
	}
	quote.Total = quote.UnitPrice.Mul(decimal.NewFromInt(int64(rc.Quantity))).Round(2)

	event := &models.QuoteEvent{
		TenantID:  rc.TenantID,
		ProductID: rc.ProductID,
		RuleID:    quote.RuleID,
		BranchID:  rc.BranchID,
		Quantity:  rc.Quantity,
		UnitPrice: quote.UnitPrice,
		Source:    quote.Source,
		Clamped:   quote.Clamped,
	}
	if err := s.repo.InsertQuoteEvent(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record quote event")
	}
	return quote, nil
}

// validateCreateInput checks a create payload beyond what binding covers.
func validateCreateInput(input CreateRuleInput) error {
	var errs error
	if input.ProductID == uuid.Nil {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required"))
	}
	if !input.PriceType.IsValid() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "invalid price_type"))
	}
	if input.Price.IsNegative() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative"))
	}
	if input.MinQuantity < 1 {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "min_quantity must be at least 1"))
	}
	if input.MaxQuantity != nil && *input.MaxQuantity < input.MinQuantity {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "max_quantity cannot be below min_quantity"))
	}
	errs = multierr.Append(errs, validateDiscounts(input.DiscountAmount, input.DiscountPercentage))
	errs = multierr.Append(errs, validateWindow(input.StartDate, input.EndDate))
	if input.TierID != nil && !input.PriceType.IsNarrow() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "tier_id requires a member or loyalty price_type"))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid pricing rule")
	}
	return nil
}
