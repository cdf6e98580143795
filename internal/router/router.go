package router

import (
	"time"

	"arcapos/internal/config"
	"arcapos/internal/handler"
	"arcapos/internal/infra"
	"arcapos/internal/middleware"
	"arcapos/internal/repository"
	"arcapos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces built by main. DB and Redis may be nil
// when the selected CART_STORE does not need them.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	CartRepo     repository.CartRepository
	CatalogCache repository.CatalogCache
	Backend      *infra.BackendClient
	ARCA         *infra.ARCAClient
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository / REST client ← Redis/DB/HTTP
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Services ─────────────────────────────────────────────────────────────
	ivaRate := decimal.NewFromFloat(cfg.IVARate)
	resolver := service.NewInvoiceTypeResolver(cfg.ExentoInvoiceLetter)

	sessions := service.NewCartSessions(deps.CartRepo, cfg.CartKeyPrefix, ivaRate)
	catalogSvc := service.NewCatalogService(deps.Backend, deps.CatalogCache)
	submitter := service.NewInvoiceSubmitter(deps.ARCA, service.SubmitterConfig{
		Timeout:        cfg.InvoiceTimeout,
		TestPDFBaseURL: cfg.TestPDFBaseURL,
		LiveBaseURL:    deps.ARCA.BaseURL(),
	})
	checkoutSvc := service.NewCheckoutService(sessions, catalogSvc, service.NewInvoiceRequestBuilder(resolver), submitter, cfg.TestingMode)
	invoiceSvc := service.NewInvoiceService(deps.ARCA)
	companySvc := service.NewCompanyConfigService(deps.ARCA, cfg.TestingMode)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cartH := handler.NewCartHandler(sessions, catalogSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc, catalogSvc, resolver)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	companyH := handler.NewCompanyConfigHandler(companySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	health := handler.HealthDeps{DB: deps.DB, Redis: deps.Redis}
	if deps.Backend != nil {
		health.Backend = deps.Backend
	}
	if deps.ARCA != nil {
		health.Invoicing = deps.ARCA
	}
	r.GET("/health", handler.Health(health))

	// Every /v1 call is scoped to a terminal and forwards the caller's token.
	v1 := r.Group("/v1", middleware.Terminal(), middleware.BearerToken())
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", cartH.ObtenerCarrito)
			cart.DELETE("", cartH.VaciarCarrito)
			cart.POST("/items", cartH.AgregarItem)
			cart.GET("/items/:productId", cartH.ObtenerItem)
			cart.PUT("/items/:productId", cartH.ActualizarCantidad)
			cart.DELETE("/items/:productId", cartH.QuitarItem)
		}

		v1.GET("/products", catalogH.ListarProductos)
		v1.GET("/products/barcode/:barcode", catalogH.BuscarPorBarcode)
		v1.GET("/clients", catalogH.ListarClientes)
		v1.POST("/clients", catalogH.CrearCliente)

		v1.POST("/invoice-type", checkoutH.TipoFactura)
		v1.POST("/checkout/preview", checkoutH.Preview)
		v1.POST("/checkout", checkoutH.Checkout)
		v1.POST("/checkout/retry", checkoutH.Reintentar)

		v1.GET("/invoices", invoicesH.Listar)
		v1.GET("/company-config", companyH.ObtenerEmpresa)
		v1.PUT("/company-config", companyH.ActualizarEmpresa)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
