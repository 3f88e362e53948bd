package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

func TestResolveBranchSpecificWinsBySpecificity(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	branchOne := mustCreateTestBranch(t, conn, tenantID, nil)
	branchTwo := mustCreateTestBranch(t, conn, tenantID, nil)

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})
	branchRule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		BranchID:  &branchOne.ID,
		Price:     mustDecimal(t, "90"),
		IsActive:  true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
		BranchID:  &branchOne.ID,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, branchRule.ID, res.Rule.ID)
	assert.Equal(t, "90", res.UnitPrice.String())

	res, err = resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
		BranchID:  &branchTwo.ID,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "100", res.UnitPrice.String())
}

func TestResolveQuantityBandsAreExclusive(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeTierGold,
		Price:       mustDecimal(t, "80"),
		MinQuantity: 1,
		MaxQuantity: intPtr(5),
		IsActive:    true,
	})
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeTierGold,
		Price:       mustDecimal(t, "70"),
		MinQuantity: 6,
		IsActive:    true,
	})

	cases := []struct {
		quantity int
		want     string
	}{
		{quantity: 5, want: "80"},
		{quantity: 6, want: "70"},
		{quantity: 100, want: "70"},
	}
	for _, tc := range cases {
		res, err := resolver.Resolve(context.Background(), ResolutionContext{
			TenantID:      tenantID,
			ProductID:     product.ID,
			Quantity:      tc.quantity,
			CustomerClass: enums.PriceTypeTierGold,
		})
		require.NoError(t, err)
		require.True(t, res.Applicable, "quantity %d", tc.quantity)
		assert.Equal(t, tc.want, res.UnitPrice.String(), "quantity %d", tc.quantity)
	}

	_, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      0,
		CustomerClass: enums.PriceTypeTierGold,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestResolveIsDeterministic(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Bands all open at or below the probed quantity, so every rule stays a
	// candidate and only the deterministic ordering decides.
	for i, price := range []string{"100", "95", "105"} {
		mustCreateTestRule(t, conn, &models.PricingRule{
			TenantID:    tenantID,
			ProductID:   product.ID,
			PriceType:   enums.PriceTypeMember,
			Price:       mustDecimal(t, price),
			MinQuantity: i + 1,
			IsActive:    true,
			UpdatedAt:   updated,
		})
	}

	rc := ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      3,
		CustomerClass: enums.PriceTypeMember,
	}
	first, err := resolver.Resolve(context.Background(), rc)
	require.NoError(t, err)
	require.True(t, first.Applicable)

	for i := 0; i < 10; i++ {
		again, err := resolver.Resolve(context.Background(), rc)
		require.NoError(t, err)
		require.True(t, again.Applicable)
		assert.Equal(t, first.Rule.ID, again.Rule.ID)
		assert.True(t, first.UnitPrice.Equal(again.UnitPrice))
	}
}

func TestResolveNoApplicableRuleIsNotAnError(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
	})
	require.NoError(t, err)
	assert.False(t, res.Applicable)
	assert.Nil(t, res.Rule)
}

func TestResolvePriorityAndRecencyTieBreaks(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeMember,
		Price:       mustDecimal(t, "100"),
		MinQuantity: 1,
		Priority:    1,
		IsActive:    true,
		UpdatedAt:   newer,
	})
	highPriority := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeMember,
		Price:       mustDecimal(t, "95"),
		MinQuantity: 2,
		Priority:    5,
		IsActive:    true,
		UpdatedAt:   older,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      2,
		CustomerClass: enums.PriceTypeMember,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, highPriority.ID, res.Rule.ID, "priority beats recency")

	tenant2 := uuid.New()
	product2 := mustCreateTestProduct(t, conn, tenant2, "120.00")
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenant2,
		ProductID: product2.ID,
		PriceType: enums.PriceTypeMember,
		Price:     mustDecimal(t, "100"),
		Priority:  1,
		IsActive:  true,
		UpdatedAt: older,
	})
	fresher := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenant2,
		ProductID: product2.ID,
		PriceType: enums.PriceTypeTierGold,
		Price:     mustDecimal(t, "96"),
		Priority:  1,
		IsActive:  true,
		UpdatedAt: newer,
	})
	// Same specificity (+1 narrow type) and priority, newer update wins.
	res, err = resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenant2,
		ProductID:     product2.ID,
		Quantity:      1,
		CustomerClass: enums.PriceTypeTierGold,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, fresher.ID, res.Rule.ID)
}

func TestResolvePendingRuleIsNeverSelected(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	pending := enums.ApprovalStatusPending
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:       tenantID,
		ProductID:      product.ID,
		PriceType:      enums.PriceTypeMember,
		Price:          mustDecimal(t, "50"),
		Priority:       100,
		IsActive:       true,
		ApprovalStatus: &pending,
	})
	fallback := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      1,
		CustomerClass: enums.PriceTypeMember,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, fallback.ID, res.Rule.ID)
}

func TestResolveDateWindowIsInclusive(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "85"),
		StartDate: &start,
		EndDate:   &end,
		IsActive:  true,
	})

	cases := []struct {
		at         time.Time
		applicable bool
	}{
		{at: start, applicable: true},
		{at: end, applicable: true},
		{at: start.Add(-time.Second), applicable: false},
		{at: end.Add(time.Second), applicable: false},
	}
	for _, tc := range cases {
		res, err := resolver.Resolve(context.Background(), ResolutionContext{
			TenantID:  tenantID,
			ProductID: product.ID,
			Quantity:  1,
			At:        tc.at,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.applicable, res.Applicable, "at %s", tc.at)
	}
}

func TestResolveDiscountStackThenRegionalAdjustment(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	markup := "5"
	zone := mustCreateTestPriceTier(t, conn, tenantID, "1.1", &markup, nil)

	// 100 - 10 flat = 90, -10% = 81, *1.1 = 89.1, +5 = 94.1
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:           tenantID,
		ProductID:          product.ID,
		Price:              mustDecimal(t, "100"),
		DiscountAmount:     decimalPtr(t, "10"),
		DiscountPercentage: decimalPtr(t, "10"),
		PriceTierID:        &zone.ID,
		IsActive:           true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "94.1", res.UnitPrice.String())
	assert.False(t, res.Clamped)
}

func TestResolveBranchDefaultPriceTierInheritance(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	zone := mustCreateTestPriceTier(t, conn, tenantID, "2", nil, nil)
	branch := mustCreateTestBranch(t, conn, tenantID, &zone.ID)

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "40"),
		IsActive:  true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
		BranchID:  &branch.ID,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "80", res.UnitPrice.String())
}

func TestResolveUnknownContextPriceTierIsAValidationError(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "40"),
		IsActive:  true,
	})

	// A caller-supplied zone that does not exist is a bad request, the same
	// way an unknown branch is. A rule whose own tier reference dangles still
	// degrades silently; only the context path is strict.
	bogus := uuid.New()
	_, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:    tenantID,
		ProductID:   product.ID,
		Quantity:    1,
		PriceTierID: &bogus,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	dangling := uuid.New()
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeMember,
		Price:       mustDecimal(t, "30"),
		PriceTierID: &dangling,
		IsActive:    true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      1,
		CustomerClass: enums.PriceTypeTierGold,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "30", res.UnitPrice.String())
}

func TestResolveNegativePriceClampsToZero(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:       tenantID,
		ProductID:      product.ID,
		Price:          mustDecimal(t, "10"),
		DiscountAmount: decimalPtr(t, "25"),
		IsActive:       true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.True(t, res.UnitPrice.IsZero())
	assert.True(t, res.Clamped)
}

func TestResolveRoundsHalfUpAtTheEnd(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	// 10.005 rounds half-up to 10.01 only at the final step.
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "10.005"),
		IsActive:  true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
	})
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "10.01", res.UnitPrice.String())
}

func TestResolveSpecificityMonotonicity(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	branch := mustCreateTestBranch(t, conn, tenantID, nil)

	broad := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	rc := ResolutionContext{
		TenantID:  tenantID,
		ProductID: product.ID,
		Quantity:  1,
		BranchID:  &branch.ID,
	}
	res, err := resolver.Resolve(context.Background(), rc)
	require.NoError(t, err)
	require.True(t, res.Applicable)
	require.Equal(t, broad.ID, res.Rule.ID)

	narrow := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		BranchID:  &branch.ID,
		Price:     mustDecimal(t, "97"),
		IsActive:  true,
	})

	res, err = resolver.Resolve(context.Background(), rc)
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, narrow.ID, res.Rule.ID, "adding a more specific rule must not lose to the broad one")
}

func TestResolveTierRuleOnlyAppliesToItsClass(t *testing.T) {
	conn := setupPricingTestDB(t)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		PriceType: enums.PriceTypeTierGold,
		Price:     mustDecimal(t, "75"),
		IsActive:  true,
	})

	res, err := resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      1,
		CustomerClass: enums.PriceTypeTierSilver,
	})
	require.NoError(t, err)
	assert.False(t, res.Applicable, "gold rule must not apply to a silver customer")

	res, err = resolver.Resolve(context.Background(), ResolutionContext{
		TenantID:      tenantID,
		ProductID:     product.ID,
		Quantity:      1,
		CustomerClass: enums.PriceTypeTierGold,
	})
	require.NoError(t, err)
	assert.True(t, res.Applicable)
}
