package pricing

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/metrics"
)

var oneHundred = decimal.NewFromInt(100)

// Resolution is the outcome of one price lookup. Applicable == false means no
// rule survived filtering; the caller decides whether to fall back to a list
// price or reject the line. It is never an error.
type Resolution struct {
	Applicable bool
	Rule       *models.PricingRule
	UnitPrice  decimal.Decimal
	Clamped    bool
}

// Resolver filters and ranks pricing rules for a resolution context.
type Resolver struct {
	repo    *Repository
	metrics *metrics.ResolutionMetrics
	logg    *logger.Logger
}

// NewResolver constructs a resolver instance.
func NewResolver(repo *Repository, resolutionMetrics *metrics.ResolutionMetrics, logg *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, metrics: resolutionMetrics, logg: logg}, nil
}

// Resolve picks the single winning rule for the context and computes its
// decimal unit price. Repeated calls with the same rule set and context
// return identical output.
func (r *Resolver) Resolve(ctx context.Context, rc ResolutionContext) (*Resolution, error) {
	started := time.Now()

	if err := rc.Validate(); err != nil {
		return nil, err
	}

	rules, err := r.repo.FetchRulesForProduct(ctx, rc.TenantID, rc.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch rules for product")
	}

	at := rc.at()
	candidates := make([]models.PricingRule, 0, len(rules))
	for _, rule := range rules {
		if ruleApplies(&rule, rc, at) {
			candidates = append(candidates, rule)
		}
	}

	if len(candidates) == 0 {
		r.metrics.IncNoRule()
		r.metrics.ObserveResolution("no_rule", time.Since(started))
		return &Resolution{Applicable: false}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rankLess(&candidates[i], &candidates[j], rc)
	})
	winner := candidates[0]

	adjustment, err := r.regionalAdjustment(ctx, &winner, rc)
	if err != nil {
		return nil, err
	}

	unitPrice, clamped := computeUnitPrice(&winner, adjustment)
	if clamped {
		r.metrics.IncClamped()
		warnCtx := r.logg.WithFields(ctx, map[string]any{
			"rule_id":    winner.ID.String(),
			"product_id": rc.ProductID.String(),
		})
		r.logg.Warn(warnCtx, "computed price was negative, clamped to zero")
	}

	r.metrics.ObserveResolution("resolved", time.Since(started))
	return &Resolution{
		Applicable: true,
		Rule:       &winner,
		UnitPrice:  unitPrice,
		Clamped:    clamped,
	}, nil
}

// ruleApplies implements the filter step: state, quantity band, date window,
// and scope compatibility with the context.
func ruleApplies(rule *models.PricingRule, rc ResolutionContext, at time.Time) bool {
	if !rule.IsActive {
		return false
	}
	if rule.IsPending() {
		return false
	}

	if rc.Quantity < rule.MinQuantity {
		return false
	}
	if rule.MaxQuantity != nil && rc.Quantity > *rule.MaxQuantity {
		return false
	}

	if rule.StartDate != nil && at.Before(*rule.StartDate) {
		return false
	}
	if rule.EndDate != nil && at.After(*rule.EndDate) {
		return false
	}

	if rule.BranchID != nil {
		if rc.BranchID == nil || *rule.BranchID != *rc.BranchID {
			return false
		}
	}
	if rule.TierID != nil {
		if rc.LoyaltyTierID == nil || *rule.TierID != *rc.LoyaltyTierID {
			return false
		}
	}
	return rule.PriceType.AppliesTo(rc.class())
}

// specificity scores how narrowly a rule targets the context. Higher wins.
func specificity(rule *models.PricingRule, rc ResolutionContext) int {
	score := 0
	if rule.BranchID != nil && rc.BranchID != nil && *rule.BranchID == *rc.BranchID {
		score += 4
	}
	if rule.TierID != nil && rc.LoyaltyTierID != nil && *rule.TierID == *rc.LoyaltyTierID {
		score += 2
	}
	if rule.PriceType.IsNarrow() {
		score++
	}
	return score
}

// rankLess orders candidates: specificity desc, priority desc, most recently
// updated first, then smallest id for a deterministic final tie-break.
func rankLess(a, b *models.PricingRule, rc ResolutionContext) bool {
	sa, sb := specificity(a, rc), specificity(b, rc)
	if sa != sb {
		return sa > sb
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// regionalAdjustment picks the price tier to apply: the rule's own tier wins,
// then the branch default, then the zone named on the context.
func (r *Resolver) regionalAdjustment(ctx context.Context, rule *models.PricingRule, rc ResolutionContext) (*models.PriceTier, error) {
	if rule.PriceTierID != nil {
		if rule.PriceTier != nil {
			return rule.PriceTier, nil
		}
		return r.loadPriceTier(ctx, rc.TenantID, *rule.PriceTierID)
	}

	if rc.BranchID != nil {
		branch, err := r.repo.FindBranchByID(ctx, rc.TenantID, *rc.BranchID)
		if err != nil {
			if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown branch in resolution context")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
		}
		if branch.DefaultPriceTierID != nil {
			return r.loadPriceTier(ctx, rc.TenantID, *branch.DefaultPriceTierID)
		}
	}

	if rc.PriceTierID != nil {
		tier, err := r.repo.FindPriceTierByID(ctx, rc.TenantID, *rc.PriceTierID)
		if err != nil {
			if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown price tier in resolution context")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price tier")
		}
		return tier, nil
	}
	return nil, nil
}

// loadPriceTier resolves a tier referenced by a rule or branch row. A dangling
// reference degrades to no regional adjustment rather than failing the quote.
func (r *Resolver) loadPriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID) (*models.PriceTier, error) {
	tier, err := r.repo.FindPriceTierByID(ctx, tenantID, priceTierID)
	if err != nil {
		if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price tier")
	}
	return tier, nil
}

// computeUnitPrice applies the discount stack (flat then percent), then the
// regional adjustment (multiplier, flat markup, percent markup), clamps to
// zero, and rounds half-up to cents only at the very end.
func computeUnitPrice(rule *models.PricingRule, tier *models.PriceTier) (decimal.Decimal, bool) {
	amount := rule.Price

	if rule.DiscountAmount != nil {
		amount = amount.Sub(*rule.DiscountAmount)
	}
	if rule.DiscountPercentage != nil {
		amount = amount.Sub(amount.Mul(*rule.DiscountPercentage).Div(oneHundred))
	}

	if tier != nil {
		amount = amount.Mul(tier.Multiplier)
		if tier.MarkupAmount != nil {
			amount = amount.Add(*tier.MarkupAmount)
		}
		if tier.MarkupPercentage != nil {
			amount = amount.Add(amount.Mul(*tier.MarkupPercentage).Div(oneHundred))
		}
	}

	clamped := false
	if amount.IsNegative() {
		amount = decimal.Zero
		clamped = true
	}
	return amount.Round(2), clamped
}

// quoteSource reports which path produced the quoted price.
func quoteSource(res *Resolution) enums.QuoteSource {
	if res != nil && res.Applicable {
		return enums.QuoteSourceRule
	}
	return enums.QuoteSourceFallback
}
