package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailsignals/pricewise-backend/pkg/auth"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

func hqActor(tenantID uuid.UUID) *auth.AccessTokenClaims {
	return &auth.AccessTokenClaims{
		ActorID:  uuid.New(),
		TenantID: tenantID,
		Role:     enums.ActorRoleHQAdmin,
	}
}

func branchActor(tenantID uuid.UUID) *auth.AccessTokenClaims {
	branchID := uuid.New()
	return &auth.AccessTokenClaims{
		ActorID:  uuid.New(),
		TenantID: tenantID,
		BranchID: &branchID,
		Role:     enums.ActorRoleBranchManager,
	}
}

func TestProposeApproveLifecycle(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)
	resolver := newTestResolver(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	rc := ResolutionContext{TenantID: tenantID, ProductID: product.ID, Quantity: 1}
	proposer := branchActor(tenantID)

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "45"),
	}, proposer)
	require.NoError(t, err)

	// The change is staged; the live price must not move and the rule must
	// keep resolving at the old value.
	res, err := resolver.Resolve(context.Background(), rc)
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "50", res.UnitPrice.String())

	var live models.PricingRule
	require.NoError(t, conn.First(&live, "id = ?", rule.ID.String()).Error)
	assert.Nil(t, live.ApprovalStatus, "staging must not mark the live row pending")
	assert.Equal(t, "50", live.Price.String())

	approved, err := guard.Approve(context.Background(), tenantID, rule.ID, hqActor(tenantID))
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovalStatus)
	assert.Equal(t, enums.ApprovalStatusApproved, *approved.ApprovalStatus)
	assert.NotNil(t, approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	res, err = resolver.Resolve(context.Background(), rc)
	require.NoError(t, err)
	require.True(t, res.Applicable)
	assert.Equal(t, "45", res.UnitPrice.String())
}

func TestProposeByHQAppliesImmediately(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	updated, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "42"),
	}, hqActor(tenantID))
	require.NoError(t, err)
	assert.Equal(t, "42", updated.Price.String())
	assert.Nil(t, updated.ApprovalStatus)
}

func TestProposeOnNonStandardRuleAppliesImmediately(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "30"),
		IsActive:  true,
	})

	updated, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "28"),
	}, branchActor(tenantID))
	require.NoError(t, err)
	assert.Equal(t, "28", updated.Price.String())
	assert.Nil(t, updated.ApprovalStatus)
}

func TestRejectKeepsLiveValues(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "10"),
	}, branchActor(tenantID))
	require.NoError(t, err)

	rejected, err := guard.Reject(context.Background(), tenantID, rule.ID, hqActor(tenantID), "too aggressive")
	require.NoError(t, err)
	assert.Equal(t, "50", rejected.Price.String())
	require.NotNil(t, rejected.ApprovalStatus)
	assert.Equal(t, enums.ApprovalStatusRejected, *rejected.ApprovalStatus)

	var revision models.PricingRuleRevision
	require.NoError(t, conn.First(&revision, "rule_id = ?", rule.ID.String()).Error)
	assert.Equal(t, enums.ApprovalStatusRejected, revision.Status)
	require.NotNil(t, revision.Reason)
	assert.Equal(t, "too aggressive", *revision.Reason)
}

func TestApproveRequiresHQAuthority(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "45"),
	}, branchActor(tenantID))
	require.NoError(t, err)

	_, err = guard.Approve(context.Background(), tenantID, rule.ID, branchActor(tenantID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = guard.Reject(context.Background(), tenantID, rule.ID, branchActor(tenantID), "nope")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestApproveTwiceIsAStateConflict(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "45"),
	}, branchActor(tenantID))
	require.NoError(t, err)

	hq := hqActor(tenantID)
	_, err = guard.Approve(context.Background(), tenantID, rule.ID, hq)
	require.NoError(t, err)

	_, err = guard.Approve(context.Background(), tenantID, rule.ID, hq)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = guard.Reject(context.Background(), tenantID, rule.ID, hq, "late")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestProposeOnPendingRuleIsAStateConflict(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	proposer := branchActor(tenantID)
	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "45"),
	}, proposer)
	require.NoError(t, err)

	_, err = guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "40"),
	}, proposer)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestProposeEmitsOutboxEvents(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:   tenantID,
		ProductID:  product.ID,
		Price:      mustDecimal(t, "50"),
		IsActive:   true,
		IsStandard: true,
	})

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "45"),
	}, branchActor(tenantID))
	require.NoError(t, err)

	_, err = guard.Approve(context.Background(), tenantID, rule.ID, hqActor(tenantID))
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, conn.
		Where("aggregate_id = ?", rule.ID.String()).
		Order("created_at ASC").
		Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventRuleChangeProposed, events[0].EventType)
	assert.Equal(t, enums.EventRuleChangeApproved, events[1].EventType)
}

func TestProposeValidatesChangeSet(t *testing.T) {
	conn := setupPricingTestDB(t)
	guard := newTestGuard(t, conn)

	tenantID := uuid.New()
	product := mustCreateTestProduct(t, conn, tenantID, "120.00")
	rule := mustCreateTestRule(t, conn, &models.PricingRule{
		TenantID:  tenantID,
		ProductID: product.ID,
		Price:     mustDecimal(t, "50"),
		IsActive:  true,
	})

	_, err := guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{}, hqActor(tenantID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		Price: decimalPtr(t, "-1"),
	}, hqActor(tenantID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = guard.ProposeChange(context.Background(), tenantID, rule.ID, ChangeSet{
		MinQuantity: intPtr(10),
		MaxQuantity: intPtr(5),
	}, hqActor(tenantID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
