// Package server assembles the HTTP router from the feature packages.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/auth"
	"github.com/comanda-app/backend/internal/menu"
	"github.com/comanda-app/backend/internal/middleware"
	"github.com/comanda-app/backend/internal/orders"
	"github.com/comanda-app/backend/internal/public"
	"github.com/comanda-app/backend/internal/realtime"
	"github.com/comanda-app/backend/internal/tables"
	"github.com/comanda-app/backend/internal/tenants"
	"github.com/comanda-app/backend/internal/uploads"
	"github.com/comanda-app/backend/pkg/database"
	"github.com/comanda-app/backend/pkg/response"
	"github.com/comanda-app/backend/pkg/storage"
)

// Deps are the long-lived services the router is built on.
type Deps struct {
	DB          database.Gateway
	Hub         *realtime.Hub
	JWT         *auth.JWTService
	Images      storage.ImageStore
	OperatorKey string
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires every route. When Images is a *storage.Local its directory
// is served under its public path.
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}
	logger := d.Logger

	// Tenants
	tenantRepo := tenants.NewRepository(d.DB)
	tenantService := tenants.NewService(tenantRepo)
	tenantHandler := tenants.NewHandler(tenantRepo, tenantService, logger)

	// Auth
	authHandler := auth.NewHandler(auth.NewRepository(d.DB), tenantService, d.JWT, logger)

	// Catalog and tables
	menuHandler := menu.NewHandler(menu.NewRepository(d.DB), logger)
	tableHandler := tables.NewHandler(tables.NewRepository(d.DB), logger)
	publicHandler := public.NewHandler(public.NewRepository(d.DB), logger)

	// Orders publish to the kitchen channels
	orderHandler := orders.NewHandler(orders.NewService(d.DB, d.Hub, logger), logger)

	uploadHandler := uploads.NewHandler(d.Images, logger)

	wsValidate := func(token string) (*int64, error) {
		claims, err := d.JWT.Validate(token)
		if err != nil {
			return nil, err
		}
		return claims.TenantID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "backend": d.DB.Backend()})
	})

	if local, ok := d.Images.(*storage.Local); ok {
		router.Static(local.PublicPath(), local.Dir())
	}

	operator := middleware.RequireOperatorKey(d.OperatorKey)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", operator, authHandler.Register)
	}

	// Provisioning (operator key)
	tenantGroup := router.Group("/tenants", operator)
	{
		tenantGroup.GET("", tenantHandler.List)
		tenantGroup.POST("", tenantHandler.Create)
		tenantGroup.PUT("/:id", tenantHandler.Update)
		tenantGroup.PUT("/:id/credentials", tenantHandler.UpdateCredentials)
		tenantGroup.DELETE("/:id", tenantHandler.Delete)
	}

	// Public: diners at the table
	router.GET("/public/menu", publicHandler.Menu)
	router.GET("/public/config", publicHandler.Config)
	router.POST("/orders", orderHandler.Place)
	router.GET("/orders/bill", orderHandler.Bill)

	// Owner API (JWT with a tenant)
	api := router.Group("")
	api.Use(middleware.JWT(d.JWT), middleware.RequireTenant())
	{
		api.GET("/menu/categories", menuHandler.ListCategories)
		api.POST("/menu/categories", menuHandler.CreateCategory)
		api.DELETE("/menu/categories/:id", menuHandler.DeleteCategory)
		api.GET("/menu/dishes", menuHandler.ListDishes)
		api.POST("/menu/dishes", menuHandler.CreateDish)
		api.PUT("/menu/dishes/:id", menuHandler.UpdateDish)
		api.DELETE("/menu/dishes/:id", menuHandler.DeleteDish)
		api.POST("/menu/modifiers", menuHandler.CreateModifier)
		api.DELETE("/menu/modifiers/:id", menuHandler.DeleteModifier)

		api.GET("/tables", tableHandler.List)
		api.POST("/tables", tableHandler.Create)
		api.DELETE("/tables/:id", tableHandler.Delete)

		api.POST("/upload", uploadHandler.Upload)

		api.GET("/orders/pending", orderHandler.Pending)
		api.POST("/orders/:id/complete", orderHandler.Complete)
	}

	// WebSocket (token in query, optional)
	router.GET("/ws", realtime.ServeWs(d.Hub, logger, wsValidate))

	return router, nil
}
