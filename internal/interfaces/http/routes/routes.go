// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/interfaces/http/handlers"
	"github.com/your-org/sitestock-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API v1 routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, cfg)
	SetupItemRoutes(rg, db, cfg)
	SetupActorRoutes(rg, db, cfg)
	SetupMovementRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// SetupItemRoutes sets up item registry read routes
func SetupItemRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	itemHandler := handlers.NewItemHandler(db, cfg)

	items := rg.Group("/items")
	items.Use(middleware.AuthMiddleware(cfg))
	{
		items.GET("/:kind", itemHandler.ListItems)
		items.GET("/:kind/:id", itemHandler.GetItem)
	}
}

// SetupActorRoutes sets up site and custodian read routes
func SetupActorRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	actorHandler := handlers.NewActorHandler(db, cfg)

	sites := rg.Group("/sites")
	sites.Use(middleware.AuthMiddleware(cfg))
	{
		sites.GET("", actorHandler.ListSites)
		sites.GET("/:id", actorHandler.GetSite)
	}

	custodians := rg.Group("/custodians")
	custodians.Use(middleware.AuthMiddleware(cfg))
	{
		custodians.GET("", actorHandler.ListCustodians)
		custodians.GET("/:id", actorHandler.GetCustodian)
	}
}

// SetupMovementRoutes sets up ledger routes
func SetupMovementRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	movementHandler := handlers.NewMovementHandler(db, cfg)

	movements := rg.Group("/movements")
	movements.Use(middleware.AuthMiddleware(cfg))
	{
		movements.POST("", movementHandler.Submit)
		movements.POST("/:id/cancel", movementHandler.Cancel)
		movements.GET("", movementHandler.List)
	}
}

// SetupAdminRoutes sets up registry administration routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	itemHandler := handlers.NewItemHandler(db, cfg)
	actorHandler := handlers.NewActorHandler(db, cfg)
	auditHandler := handlers.NewAuditHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		// Item registry administration
		admin.POST("/items/supply", itemHandler.CreateSupply)
		admin.POST("/items/electrical", itemHandler.CreateElectrical)
		admin.POST("/items/manual", itemHandler.CreateManual)
		admin.PUT("/items/:kind/:id", itemHandler.UpdateItem)
		admin.DELETE("/items/:kind/:id", itemHandler.DeactivateItem)
		admin.POST("/items/:kind/:id/reactivate", itemHandler.ReactivateItem)

		// Actor registry administration
		admin.POST("/sites", actorHandler.CreateSite)
		admin.DELETE("/sites/:id", actorHandler.DeactivateSite)
		admin.POST("/custodians", actorHandler.CreateCustodian)
		admin.DELETE("/custodians/:id", actorHandler.DeactivateCustodian)

		// Accounts and audit trail
		admin.POST("/users", authHandler.CreateUser)
		admin.GET("/audit", auditHandler.Query)
	}
}
