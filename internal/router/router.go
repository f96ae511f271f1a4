package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/handlers"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login attempts allowed per client IP.
const (
	loginRatePerSecond = 1
	loginBurst         = 5
)

// NewEngine returns a gin engine with the ambient middleware, /ping and /metrics.
func NewEngine(cfg config.ServerConfig, m *metrics.Metrics) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	engine.Use(m.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.SessionHeader}
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	return engine
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg config.Config, sessions *services.SessionStore, m *metrics.Metrics) error {
	vatRate, err := cfg.Kiosk.VAT()
	if err != nil {
		return err
	}
	renderer, err := services.NewTextReceiptRenderer(cfg.Kiosk.ReceiptDir, services.StoreInfo{
		Name:     cfg.Kiosk.StoreName,
		Address:  cfg.Kiosk.StoreAddress,
		Contact:  cfg.Kiosk.StoreContact,
		Currency: cfg.Kiosk.Currency,
	})
	if err != nil {
		return fmt.Errorf("failed to create receipt renderer: %w", err)
	}
	secret := []byte(cfg.Auth.JWTSecret)

	// Initialize Repositories
	itemRepo := repositories.NewItemRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	authRepo := repositories.NewAuthRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Initialize Services
	auditService := services.NewAuditService(auditRepo)
	authService := services.NewAuthService(authRepo, auditService, db, cfg.Auth)
	cartService := services.NewCartService(itemRepo, m, vatRate)
	checkoutService := services.NewCheckoutService(db, itemRepo, orderRepo, movementRepo, renderer, m, vatRate, cfg.Database.CommitRetries)
	itemService := services.NewItemService(itemRepo, movementRepo, auditService, db)
	stockService := services.NewStockService(db, itemRepo, movementRepo, auditService, m, cfg.Database.CommitRetries)
	orderService := services.NewOrderService(orderRepo, itemRepo, movementRepo, auditService, db)
	reportService := services.NewReportService(reportRepo, itemRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	auditHandler := handlers.NewAuditHandler(auditService)
	cartHandler := handlers.NewCartHandler(sessions, cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	itemHandler := handlers.NewItemHandler(itemService)
	stockHandler := handlers.NewStockHandler(stockService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	loginLimiter := middleware.NewIPRateLimiter(loginRatePerSecond, loginBurst)
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler, loginLimiter)
	apiV1.POST("/sessions", cartHandler.CreateSession)

	kiosk := apiV1.Group("/kiosk")
	kiosk.Use(middleware.SessionMiddleware(sessions))
	{
		SetupKioskCatalogRoutes(kiosk, itemHandler)
		SetupCartRoutes(kiosk, cartHandler)
		SetupCheckoutRoutes(kiosk, checkoutHandler)
	}

	admin := apiV1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(secret), middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin))
	{
		SetupAuthenticatedAuthRoutes(admin.Group("/auth"), authHandler)
		SetupCategoryRoutes(admin, itemHandler)
		SetupItemRoutes(admin, itemHandler, stockHandler)
		SetupStockMovementRoutes(admin, stockHandler)
		SetupOrderRoutes(admin, orderHandler)
		SetupReportRoutes(admin, reportHandler)
		SetupAuditRoutes(admin, auditHandler)
	}

	utils.LogInfo("Routes registered", map[string]interface{}{"routes": len(engine.Routes())})
	return nil
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, limiter *middleware.IPRateLimiter) {
	group.POST("/login", limiter.Middleware(), authHandler.Login)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}
