package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/internal/approvals"
	"github.com/retailsignals/pricewise-backend/internal/branches"
	"github.com/retailsignals/pricewise-backend/internal/catalog"
	"github.com/retailsignals/pricewise-backend/internal/pricetiers"
	"github.com/retailsignals/pricewise-backend/internal/pricing"
	"github.com/retailsignals/pricewise-backend/internal/tiers"
	pkgauth "github.com/retailsignals/pricewise-backend/pkg/auth"
	"github.com/retailsignals/pricewise-backend/pkg/config"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
	"github.com/retailsignals/pricewise-backend/pkg/pagination"
)

type stubPricingService struct {
	quote func(ctx context.Context, rc pricing.ResolutionContext) (*pricing.QuoteDTO, error)
}

func (s stubPricingService) CreateRule(ctx context.Context, tenantID uuid.UUID, input pricing.CreateRuleInput, actor *pkgauth.AccessTokenClaims) (*pricing.RuleDTO, error) {
	panic("unimplemented")
}

func (s stubPricingService) GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*pricing.RuleDTO, error) {
	panic("unimplemented")
}

func (s stubPricingService) ListRulesForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]pricing.RuleDTO, error) {
	return []pricing.RuleDTO{}, nil
}

func (s stubPricingService) UpdateRule(ctx context.Context, tenantID, ruleID uuid.UUID, change pricing.ChangeSet, actor *pkgauth.AccessTokenClaims) (*pricing.RuleDTO, error) {
	panic("unimplemented")
}

func (s stubPricingService) DeactivateRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *pkgauth.AccessTokenClaims) (*pricing.RuleDTO, error) {
	panic("unimplemented")
}

func (s stubPricingService) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID, actor *pkgauth.AccessTokenClaims) error {
	panic("unimplemented")
}

func (s stubPricingService) Approve(ctx context.Context, tenantID, ruleID uuid.UUID, actor *pkgauth.AccessTokenClaims) (*pricing.RuleDTO, error) {
	return &pricing.RuleDTO{}, nil
}

func (s stubPricingService) Reject(ctx context.Context, tenantID, ruleID uuid.UUID, actor *pkgauth.AccessTokenClaims, reason string) (*pricing.RuleDTO, error) {
	return &pricing.RuleDTO{}, nil
}

func (s stubPricingService) Quote(ctx context.Context, rc pricing.ResolutionContext) (*pricing.QuoteDTO, error) {
	if s.quote != nil {
		return s.quote(ctx, rc)
	}
	return &pricing.QuoteDTO{UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(10)}, nil
}

type stubCatalogService struct{}

func (s stubCatalogService) CreateProduct(ctx context.Context, tenantID uuid.UUID, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s stubCatalogService) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s stubCatalogService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s stubCatalogService) ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{}, nil
}

type stubBranchService struct{}

func (s stubBranchService) CreateBranch(ctx context.Context, tenantID uuid.UUID, input branches.BranchInput) (*branches.BranchDTO, error) {
	panic("unimplemented")
}

func (s stubBranchService) UpdateBranch(ctx context.Context, tenantID, branchID uuid.UUID, input branches.BranchUpdate) (*branches.BranchDTO, error) {
	panic("unimplemented")
}

func (s stubBranchService) GetBranch(ctx context.Context, tenantID, branchID uuid.UUID) (*branches.BranchDTO, error) {
	panic("unimplemented")
}

func (s stubBranchService) ListBranches(ctx context.Context, tenantID uuid.UUID) ([]branches.BranchDTO, error) {
	return []branches.BranchDTO{}, nil
}

type stubPriceTierService struct{}

func (s stubPriceTierService) CreatePriceTier(ctx context.Context, tenantID uuid.UUID, input pricetiers.PriceTierInput) (*pricetiers.PriceTierDTO, error) {
	panic("unimplemented")
}

func (s stubPriceTierService) UpdatePriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID, input pricetiers.PriceTierUpdate) (*pricetiers.PriceTierDTO, error) {
	panic("unimplemented")
}

func (s stubPriceTierService) GetPriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID) (*pricetiers.PriceTierDTO, error) {
	panic("unimplemented")
}

func (s stubPriceTierService) ListPriceTiers(ctx context.Context, tenantID uuid.UUID) ([]pricetiers.PriceTierDTO, error) {
	return []pricetiers.PriceTierDTO{}, nil
}

type stubTierService struct{}

func (s stubTierService) CreateTier(ctx context.Context, tenantID uuid.UUID, input tiers.TierInput) (*tiers.TierDTO, error) {
	panic("unimplemented")
}

func (s stubTierService) UpdateTier(ctx context.Context, tenantID, tierID uuid.UUID, input tiers.TierUpdate) (*tiers.TierDTO, error) {
	panic("unimplemented")
}

func (s stubTierService) GetTier(ctx context.Context, tenantID, tierID uuid.UUID) (*tiers.TierDTO, error) {
	panic("unimplemented")
}

func (s stubTierService) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]tiers.TierDTO, error) {
	return []tiers.TierDTO{}, nil
}

type stubApprovalsService struct{}

func (s stubApprovalsService) ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]approvals.PendingChange, error) {
	return []approvals.PendingChange{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:           cfg,
		Logger:           logg,
		PricingService:   stubPricingService{},
		CatalogService:   stubCatalogService{},
		BranchService:    stubBranchService{},
		PriceTierService: stubPriceTierService{},
		TierService:      stubTierService{},
		ApprovalsService: stubApprovalsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		ActorID:  uuid.New(),
		TenantID: uuid.New(),
		Role:     role,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health live got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for product list got %d", resp.Code)
	}
}

func TestApproveRequiresHQRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/rules/" + uuid.NewString() + "/approve"

	branchManager := httptest.NewRequest(http.MethodPost, target, nil)
	branchManager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleBranchManager))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, branchManager)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for branch manager approve got %d", resp.Code)
	}

	hq := httptest.NewRequest(http.MethodPost, target, nil)
	hq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleHQAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, hq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for hq approve got %d", resp.Code)
	}
}

func TestPendingApprovalsRequiresHQRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	clerk := httptest.NewRequest(http.MethodGet, "/api/v1/approvals/pending", nil)
	clerk.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, clerk)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk pending list got %d", resp.Code)
	}

	hq := httptest.NewRequest(http.MethodGet, "/api/v1/approvals/pending", nil)
	hq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleHQAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, hq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for hq pending list got %d", resp.Code)
	}
}

func TestStandardWritesRequireHQRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	clerk := httptest.NewRequest(http.MethodPost, "/api/v1/products/", nil)
	clerk.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, clerk)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk product create got %d", resp.Code)
	}
}

func TestQuoteEndpointReachable(t *testing.T) {
	cfg := testConfig()
	quoted := false
	router := NewRouter(RouterParams{
		Config: cfg,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		PricingService: stubPricingService{
			quote: func(ctx context.Context, rc pricing.ResolutionContext) (*pricing.QuoteDTO, error) {
				quoted = true
				return &pricing.QuoteDTO{UnitPrice: decimal.NewFromInt(5), Total: decimal.NewFromInt(15)}, nil
			},
		},
		CatalogService:   stubCatalogService{},
		BranchService:    stubBranchService{},
		PriceTierService: stubPriceTierService{},
		TierService:      stubTierService{},
		ApprovalsService: stubApprovalsService{},
	})

	body := `{"product_id":"` + uuid.NewString() + `","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleClerk))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for quote got %d: %s", resp.Code, resp.Body.String())
	}
	if !quoted {
		t.Fatal("expected quote service to be called")
	}
}
