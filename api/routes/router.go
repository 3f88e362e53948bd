package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailsignals/pricewise-backend/api/controllers"
	"github.com/retailsignals/pricewise-backend/api/middleware"
	"github.com/retailsignals/pricewise-backend/internal/approvals"
	"github.com/retailsignals/pricewise-backend/internal/branches"
	"github.com/retailsignals/pricewise-backend/internal/catalog"
	"github.com/retailsignals/pricewise-backend/internal/pricetiers"
	"github.com/retailsignals/pricewise-backend/internal/pricing"
	"github.com/retailsignals/pricewise-backend/internal/tiers"
	"github.com/retailsignals/pricewise-backend/pkg/config"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	PricingService   pricing.Service
	CatalogService   catalog.Service
	BranchService    branches.Service
	PriceTierService pricetiers.Service
	TierService      tiers.Service
	ApprovalsService approvals.Service
	MetricsGatherer  prometheus.Gatherer
	Pingers          map[string]controllers.Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Pingers))
	})

	if params.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	hqOnly := middleware.RequireRole(enums.ActorRoleHQAdmin.String(), logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/quotes", controllers.Quote(params.PricingService, logg))

		r.Route("/rules", func(r chi.Router) {
			r.Post("/", controllers.CreateRule(params.PricingService, logg))
			r.Get("/{ruleID}", controllers.GetRule(params.PricingService, logg))
			r.Post("/{ruleID}/propose", controllers.ProposeRuleChange(params.PricingService, logg))
			r.With(hqOnly).Post("/{ruleID}/approve", controllers.ApproveRule(params.PricingService, logg))
			r.With(hqOnly).Post("/{ruleID}/reject", controllers.RejectRule(params.PricingService, logg))
			r.Post("/{ruleID}/deactivate", controllers.DeactivateRule(params.PricingService, logg))
			r.Delete("/{ruleID}", controllers.DeleteRule(params.PricingService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(params.CatalogService, logg))
			r.Get("/{productID}", controllers.GetProduct(params.CatalogService, logg))
			r.Get("/{productID}/rules", controllers.ListRulesForProduct(params.PricingService, logg))
			r.With(hqOnly).Post("/", controllers.CreateProduct(params.CatalogService, logg))
			r.With(hqOnly).Patch("/{productID}", controllers.UpdateProduct(params.CatalogService, logg))
		})

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", controllers.ListBranches(params.BranchService, logg))
			r.Get("/{branchID}", controllers.GetBranch(params.BranchService, logg))
			r.With(hqOnly).Post("/", controllers.CreateBranch(params.BranchService, logg))
			r.With(hqOnly).Patch("/{branchID}", controllers.UpdateBranch(params.BranchService, logg))
		})

		r.Route("/price-tiers", func(r chi.Router) {
			r.Get("/", controllers.ListPriceTiers(params.PriceTierService, logg))
			r.Get("/{priceTierID}", controllers.GetPriceTier(params.PriceTierService, logg))
			r.With(hqOnly).Post("/", controllers.CreatePriceTier(params.PriceTierService, logg))
			r.With(hqOnly).Patch("/{priceTierID}", controllers.UpdatePriceTier(params.PriceTierService, logg))
		})

		r.Route("/loyalty-tiers", func(r chi.Router) {
			r.Get("/", controllers.ListLoyaltyTiers(params.TierService, logg))
			r.Get("/{tierID}", controllers.GetLoyaltyTier(params.TierService, logg))
			r.With(hqOnly).Post("/", controllers.CreateLoyaltyTier(params.TierService, logg))
			r.With(hqOnly).Patch("/{tierID}", controllers.UpdateLoyaltyTier(params.TierService, logg))
		})

		r.With(hqOnly).Get("/approvals/pending", controllers.ListPendingApprovals(params.ApprovalsService, logg))
	})

	return r
}
