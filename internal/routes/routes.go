// Package routes defines the API routing configuration.
// It builds the settlement services, sets up all HTTP routes and their
// handlers, and applies middleware and authentication requirements.
package routes

import (
	"tourneypay/internal/config"
	"tourneypay/internal/handlers"
	"tourneypay/internal/middleware"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/repositories/cache"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/services/cancellation"
	"tourneypay/internal/services/elevation"
	"tourneypay/internal/services/feelock"
	"tourneypay/internal/services/ledger"
	"tourneypay/internal/services/payout"
	"tourneypay/internal/services/registration"
	"tourneypay/internal/services/verification"
	"tourneypay/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the infrastructure the services run on. Cache and
// Uploader are optional.
type Dependencies struct {
	Store      repositories.Store
	Cache      *cache.CacheService
	Uploader   storage.FileUploader
	Health     handlers.Pinger
	Settlement config.Settlement
	JWTSecret  string
}

// Services groups the settlement services built from Dependencies.
type Services struct {
	Ledger        *ledger.Service
	Payouts       *payout.Service
	FeeLock       *feelock.Service
	Registrations *registration.Service
	Verifications *verification.Service
	Cancellations *cancellation.Service
	Audit         *audit.Service
	Elevation     *elevation.Service
	Sweeper       *payout.Sweeper
}

// NewServices wires the services in dependency order.
func NewServices(deps Dependencies) *Services {
	var metrics ledger.MetricsCollector = &ledger.NoopMetricsCollector{}
	if !config.IsProduction() {
		metrics = &ledger.LogMetricsCollector{}
	}
	ledgerSvc := ledger.NewService(deps.Store, metrics)

	var summaryCache payout.SummaryCache
	if deps.Cache != nil {
		summaryCache = deps.Cache
	}
	payoutSvc := payout.NewService(deps.Store, ledgerSvc, summaryCache, payout.Config{
		PlatformFeePercent: deps.Settlement.PlatformFeePercent,
		GracePeriod:        deps.Settlement.PayoutGracePeriod,
	})

	return &Services{
		Ledger:        ledgerSvc,
		Payouts:       payoutSvc,
		FeeLock:       feelock.NewService(deps.Store),
		Registrations: registration.NewService(deps.Store),
		Verifications: verification.NewService(deps.Store, ledgerSvc, payoutSvc),
		Cancellations: cancellation.NewService(deps.Store, ledgerSvc, payoutSvc, cancellation.FullRefundPolicy{}),
		Audit:         audit.NewService(deps.Store, deps.Uploader),
		Elevation: elevation.NewService(deps.Store, elevation.Config{
			Secret:       deps.Settlement.ElevationSecret,
			TTL:          deps.Settlement.ElevationTTL,
			PasscodeHash: deps.Settlement.AdminPasscodeHash,
		}),
		Sweeper: payout.NewSweeper(payoutSvc, payout.LogNotifier{}),
	}
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies, svc *Services) {
	var cachePinger handlers.Pinger
	if deps.Cache != nil {
		cachePinger = deps.Cache
	}
	app.Get("/health", handlers.HealthCheck(deps.Health, cachePinger))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to TourneyPay API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})

	categoryHandler := handlers.NewCategoryHandler(svc.FeeLock, svc.Registrations)
	paymentHandler := handlers.NewPaymentHandler(svc.Verifications)
	settlementHandler := handlers.NewSettlementHandler(svc.Payouts, deps.Settlement.PlatformFeePercent)
	cancellationHandler := handlers.NewCancellationHandler(svc.Cancellations)
	ledgerHandler := handlers.NewLedgerHandler(svc.Ledger)
	auditHandler := handlers.NewAuditHandler(svc.Audit)
	elevationHandler := handlers.NewElevationHandler(svc.Elevation)

	api := app.Group("/api")

	// Fee split preview is public
	api.Get("/split", settlementHandler.Split)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret)
	protected := api.Group("", authMiddleware.Handler, middleware.Elevation(svc.Elevation))

	var claimer middleware.KeyClaimer
	if deps.Cache != nil {
		claimer = deps.Cache
	}
	idempotent := middleware.Idempotency(claimer, deps.Settlement.IdempotencyTTL)

	setupCategoryRoutes(protected, categoryHandler, idempotent)
	setupPaymentRoutes(protected, paymentHandler, settlementHandler, cancellationHandler, idempotent)
	protected.Get("/ledger/:type/:owner", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.History)

	setupAdminRoutes(protected, settlementHandler, ledgerHandler, auditHandler, elevationHandler, idempotent)
}

func setupCategoryRoutes(router fiber.Router, h *handlers.CategoryHandler, idempotent fiber.Handler) {
	categories := router.Group("/categories")
	categories.Post("/:id/fee-check", middleware.HasPermission(models.PermissionCategoryWrite), h.CheckFee)
	categories.Put("/:id", middleware.HasPermission(models.PermissionCategoryWrite), h.Update)
	categories.Post("/:id/registrations", middleware.HasPermission(models.PermissionRegistrationWrite), idempotent, h.Register)
}

func setupPaymentRoutes(router fiber.Router, payments *handlers.PaymentHandler, settlement *handlers.SettlementHandler, cancellations *handlers.CancellationHandler, idempotent fiber.Handler) {
	router.Post("/registrations/:id/payments", middleware.HasPermission(models.PermissionPaymentSubmit), idempotent, payments.Submit)
	router.Post("/registrations/:id/cancellation", middleware.HasPermission(models.PermissionCancellationRequest), idempotent, cancellations.Request)

	verifications := router.Group("/verifications", middleware.HasPermission(models.PermissionPaymentVerify))
	verifications.Post("/:id/approve", idempotent, payments.Approve)
	verifications.Post("/:id/reject", idempotent, payments.Reject)

	router.Get("/tournaments/:id/verifications", middleware.HasPermission(models.PermissionPaymentVerify), payments.ListPending)
	router.Get("/tournaments/:id/payment", middleware.HasPermission(models.PermissionPaymentVerify), settlement.Summary)

	router.Post("/cancellations/:id/decision", middleware.HasPermission(models.PermissionCancellationDecide), idempotent, cancellations.Decide)
}

func setupAdminRoutes(router fiber.Router, settlement *handlers.SettlementHandler, ledgerHandler *handlers.LedgerHandler, auditHandler *handlers.AuditHandler, elevationHandler *handlers.ElevationHandler, idempotent fiber.Handler) {
	admin := router.Group("/admin", middleware.AdminAuthMiddleware)

	admin.Post("/tournaments/:id/payouts/:installment", middleware.HasPermission(models.PermissionWriteAdmin), idempotent, settlement.MarkPaid)
	admin.Get("/payouts/overdue", middleware.HasPermission(models.PermissionReadAdmin), settlement.ListOverdue)
	admin.Get("/ledger/:type/:owner/reconcile", middleware.HasPermission(models.PermissionReadAdmin), ledgerHandler.Reconcile)

	audit := admin.Group("/audit", middleware.HasPermission(models.PermissionReadAdmin))
	audit.Get("/", auditHandler.List)
	audit.Get("/export", auditHandler.Export)
	audit.Post("/archive", middleware.HasPermission(models.PermissionWriteAdmin), auditHandler.Archive)

	admin.Post("/elevation", middleware.HasPermission(models.PermissionWriteAdmin), elevationHandler.Issue)
}
