package router

import (
	"database/sql"

	"cafe_pos_backend/internal/events"
	"cafe_pos_backend/internal/handlers"
	"cafe_pos_backend/internal/middleware"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Config carries the wiring knobs the router cannot derive itself.
type Config struct {
	AllowNegativeIngredientStock bool
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, publisher events.Publisher, cfg Config) {
	clock := utils.SystemClock{}

	// Initialize Repositories
	userRepo := repositories.NewUserRepository(db)
	productRepo := repositories.NewProductRepository(db)
	accompanimentRepo := repositories.NewAccompanimentRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Initialize Services
	authService := services.NewAuthService(userRepo, clock, db)
	inventoryService := services.NewInventoryService(inventoryRepo, userRepo, notificationRepo, db, clock, cfg.AllowNegativeIngredientStock)
	productService := services.NewProductService(productRepo, inventoryRepo, clock, db)
	accompanimentService := services.NewAccompanimentService(accompanimentRepo, db)
	tableService := services.NewTableService(tableRepo, orderRepo, clock, db)
	notificationService := services.NewNotificationService(notificationRepo, db)
	orderService := services.NewOrderService(
		orderRepo, productRepo, accompanimentRepo, tableRepo, userRepo,
		inventoryService, publisher, clock, db,
	)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, accompanimentService)
	orderHandler := handlers.NewOrderHandler(orderService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	tableHandler := handlers.NewTableHandler(tableService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupOrderRoutes(authenticated, orderHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupNotificationRoutes(authenticated, notificationHandler)
	}
}
