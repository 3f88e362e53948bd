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

func TestFetchRulesForProductReturnsAllStates(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	pending := enums.ApprovalStatusPending
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		PriceType: enums.PriceTypeMember,
		Price:     mustDecimal(t, "90"),
		IsActive:  false,
	})
	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:       tenantID,
		ProductID:      product.ID,
		PriceType:      enums.PriceTypeTierGold,
		Price:          mustDecimal(t, "80"),
		IsActive:       true,
		ApprovalStatus: &pending,
	})

	rules, err := repo.FetchRulesForProduct(context.Background(), tenantID, product.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 3, "inactive and pending rows are the resolver's problem, not the store's")
}

func TestFetchRulesForProductIsTenantScoped(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	otherTenant := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	rules, err := repo.FetchRulesForProduct(context.Background(), otherTenant, product.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestCreateRuleScopeCollisionIsAConflict(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")

	_, err := repo.CreateRule(context.Background(), &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeRegular,
		Price:       mustDecimal(t, "100"),
		MinQuantity: 1,
		IsActive:    true,
	})
	require.NoError(t, err)

	_, err = repo.CreateRule(context.Background(), &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeRegular,
		Price:       mustDecimal(t, "95"),
		MinQuantity: 1,
		IsActive:    true,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// A different branch scope on the same product/type is fine.
	branch := mustCreateTestBranch(t, conn, tenantID, nil)
	_, err = repo.CreateRule(context.Background(), &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeRegular,
		BranchID:    &branch.ID,
		Price:       mustDecimal(t, "95"),
		MinQuantity: 1,
		IsActive:    true,
	})
	require.NoError(t, err)

	// So is the same scope with a disjoint quantity band.
	_, err = repo.CreateRule(context.Background(), &models.PricingRule{
		TenantID:    tenantID,
		ProductID:   product.ID,
		PriceType:   enums.PriceTypeRegular,
		Price:       mustDecimal(t, "85"),
		MinQuantity: 6,
		IsActive:    true,
	})
	require.NoError(t, err)
}

func TestUpdateRuleMissingIDIsNotFound(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.UpdateRule(context.Background(), &models.PricingRule{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		ProductID:   uuid.New(),
		Price:       mustDecimal(t, "10"),
		MinQuantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteRuleRemovesRow(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	require.NoError(t, repo.DeleteRule(context.Background(), tenantID, rule.ID))

	err := repo.DeleteRule(context.Background(), tenantID, rule.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestMarkRevisionStatusOnlyFlipsPendingRows(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	revision, err := repo.CreateRevision(context.Background(), &models.PricingRuleRevision{
		TenantID:   tenantID,
		RuleID:     rule.ID,
		Status:     enums.ApprovalStatusPending,
		Price:      decimalPtr(t, "95"),
		ProposedBy: uuid.New(),
		ProposedAt: time.Now(),
	})
	require.NoError(t, err)

	deciderID := uuid.New()
	flipped, err := repo.MarkRevisionStatus(context.Background(), revision.ID, enums.ApprovalStatusApproved, deciderID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, flipped)

	flipped, err = repo.MarkRevisionStatus(context.Background(), revision.ID, enums.ApprovalStatusRejected, deciderID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, flipped, "a decided revision must not flip again")

	var reloaded models.PricingRuleRevision
	require.NoError(t, conn.First(&reloaded, "id = ?", revision.ID.String()).Error)
	assert.Equal(t, enums.ApprovalStatusApproved, reloaded.Status)
	require.NotNil(t, reloaded.DecidedBy)
	assert.Equal(t, deciderID, *reloaded.DecidedBy)
	assert.NotNil(t, reloaded.DecidedAt)
}

func TestCountQuoteEventsForRule(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "100"),
		IsActive:  true,
	})

	count, err := repo.CountQuoteEventsForRule(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	ruleID := rule.ID
	require.NoError(t, repo.InsertQuoteEvent(context.Background(), &models.QuoteEvent{
		TenantID:  tenantID,
		ProductID: product.ID,
		RuleID:    &ruleID,
		Quantity:  2,
		UnitPrice: mustDecimal(t, "100"),
		Source:    enums.QuoteSourceRule,
	}))

	count, err = repo.CountQuoteEventsForRule(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
