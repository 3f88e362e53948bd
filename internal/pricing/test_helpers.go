package pricing

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/outbox"
)

func setupPricingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  list_price TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	branches := `
CREATE TABLE IF NOT EXISTS branches (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  default_price_tier_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	priceTiers := `
CREATE TABLE IF NOT EXISTS price_tiers (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  multiplier TEXT NOT NULL DEFAULT '1',
  markup_amount TEXT,
  markup_percentage TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	loyaltyTiers := `
CREATE TABLE IF NOT EXISTS loyalty_tiers (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  price_class TEXT NOT NULL DEFAULT 'member',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	pricingRules := `
CREATE TABLE IF NOT EXISTS pricing_rules (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  price_type TEXT NOT NULL DEFAULT 'regular',
  tier_id TEXT,
  branch_id TEXT,
  price_tier_id TEXT,
  price TEXT NOT NULL,
  discount_amount TEXT,
  discount_percentage TEXT,
  min_quantity INTEGER NOT NULL DEFAULT 1,
  max_quantity INTEGER,
  start_date DATETIME,
  end_date DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  priority INTEGER NOT NULL DEFAULT 0,
  is_standard INTEGER NOT NULL DEFAULT 0,
  requires_approval INTEGER NOT NULL DEFAULT 0,
  approval_status TEXT,
  locked_by TEXT,
  locked_at DATETIME,
  approved_by TEXT,
  approved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	ruleScopeNoTier := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_pricing_rules_scope_no_tier
  ON pricing_rules (tenant_id, product_id, price_type, COALESCE(branch_id, ''), min_quantity)
  WHERE tier_id IS NULL;`
	ruleScopeWithTier := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_pricing_rules_scope_with_tier
  ON pricing_rules (tenant_id, product_id, price_type, tier_id, COALESCE(branch_id, ''), min_quantity)
  WHERE tier_id IS NOT NULL;`
	revisions := `
CREATE TABLE IF NOT EXISTS pricing_rule_revisions (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  rule_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  price TEXT,
  discount_amount TEXT,
  discount_percentage TEXT,
  min_quantity INTEGER,
  max_quantity INTEGER,
  start_date DATETIME,
  end_date DATETIME,
  priority INTEGER,
  is_active INTEGER,
  proposed_by TEXT NOT NULL,
  proposed_at DATETIME NOT NULL,
  decided_by TEXT,
  decided_at DATETIME,
  reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	onePending := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_rule_revisions_one_pending
  ON pricing_rule_revisions (rule_id)
  WHERE status = 'pending';`
	quoteEvents := `
CREATE TABLE IF NOT EXISTS quote_events (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  rule_id TEXT,
  branch_id TEXT,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  source TEXT NOT NULL,
  clamped INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	outboxEvents := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`

	for _, stmt := range []string{
		products, branches, priceTiers, loyaltyTiers,
		pricingRules, ruleScopeNoTier, ruleScopeWithTier,
		revisions, onePending, quoteEvents, outboxEvents,
	} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "pricing-test", Output: io.Discard})
}

func newTestGuard(t *testing.T, conn *gorm.DB) *Guard {
	t.Helper()
	repo := NewRepository(conn)
	logg := testLogger()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	guard, err := NewGuard(repo, db.NewFromConn(conn), outboxSvc, logg)
	require.NoError(t, err)
	return guard
}

func newTestResolver(t *testing.T, conn *gorm.DB) *Resolver {
	t.Helper()
	resolver, err := NewResolver(NewRepository(conn), nil, testLogger())
	require.NoError(t, err)
	return resolver
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, listPrice string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SKU:       fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:      "Test Product",
		ListPrice: mustDecimal(t, listPrice),
		IsActive:  true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func mustCreateTestBranch(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, defaultPriceTierID *uuid.UUID) *models.Branch {
	t.Helper()
	branch := &models.Branch{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		Code:               fmt.Sprintf("BR-%s", uuid.NewString()[:8]),
		Name:               "Test Branch",
		DefaultPriceTierID: defaultPriceTierID,
		IsActive:           true,
	}
	require.NoError(t, conn.Create(branch).Error)
	return branch
}

func mustCreateTestPriceTier(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, multiplier string, markupAmount, markupPercentage *string) *models.PriceTier {
	t.Helper()
	tier := &models.PriceTier{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Code:       fmt.Sprintf("PT-%s", uuid.NewString()[:8]),
		Name:       "Test Zone",
		Multiplier: mustDecimal(t, multiplier),
		IsActive:   true,
	}
	if markupAmount != nil {
		v := mustDecimal(t, *markupAmount)
		tier.MarkupAmount = &v
	}
	if markupPercentage != nil {
		v := mustDecimal(t, *markupPercentage)
		tier.MarkupPercentage = &v
	}
	require.NoError(t, conn.Create(tier).Error)
	return tier
}

func mustCreateTestRule(t *testing.T, conn *gorm.DB, rule *models.PricingRule) *models.PricingRule {
	t.Helper()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.PriceType == "" {
		rule.PriceType = enums.PriceTypeRegular
	}
	if rule.MinQuantity == 0 {
		rule.MinQuantity = 1
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = time.Now()
	}
	require.NoError(t, conn.Create(rule).Error)
	return rule
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func decimalPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d := mustDecimal(t, value)
	return &d
}

func intPtr(v int) *int {
	return &v
}
