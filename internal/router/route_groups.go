package router

import (
	"cafe_pos_backend/internal/handlers"
	"cafe_pos_backend/internal/middleware"
	"cafe_pos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.GetProfile)
			// Only admins may create accounts.
			authRequiredRoutes.POST("/register",
				middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.Register)
		}
	}
}

// SetupOrderRoutes sets up the order lifecycle routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleWaiter))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/items", orderHandler.AddOrderItem)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}

// SetupProductRoutes sets up the menu catalog routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleWaiter))
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.GET("/:id/accompaniment-groups", productHandler.GetAccompanimentGroups)
		productRoutes.POST("/:id/validate-selection", productHandler.ValidateAccompanimentSelection)

		adminOnly := productRoutes.Group("")
		adminOnly.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminOnly.POST("", productHandler.CreateProduct)
			adminOnly.PUT("/:id", productHandler.UpdateProduct)
			adminOnly.PATCH("/:id/availability", productHandler.SetProductAvailability)
		}
	}
}

// SetupInventoryRoutes sets up the store stock and audit log routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/store-products")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		inventoryRoutes.POST("", inventoryHandler.CreateStoreProduct)
		inventoryRoutes.GET("", inventoryHandler.GetStoreProducts)
		inventoryRoutes.GET("/:id", inventoryHandler.GetStoreProductByID)
		inventoryRoutes.POST("/:id/restock", inventoryHandler.RestockStoreProduct)
		inventoryRoutes.POST("/:id/adjust", inventoryHandler.AdjustStock)
	}

	logRoutes := authenticatedGroup.Group("/inventory-logs")
	logRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		logRoutes.GET("", inventoryHandler.GetInventoryLogs)
	}
}

// SetupTableRoutes sets up the table registry routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleWaiter))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.PATCH("/:id/status", tableHandler.UpdateTableStatus)

		adminOnly := tableRoutes.Group("")
		adminOnly.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminOnly.POST("", tableHandler.CreateTable)
		}
	}
}

// SetupNotificationRoutes sets up the notification routes.
func SetupNotificationRoutes(authenticatedGroup *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notificationRoutes := authenticatedGroup.Group("/notifications")
	{
		notificationRoutes.GET("", notificationHandler.GetMyNotifications)
		notificationRoutes.PATCH("/:id/read", notificationHandler.MarkNotificationRead)
	}
}
