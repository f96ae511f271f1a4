package router

import (
	"kiosk_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupKioskCatalogRoutes sets up the read-only catalog the touchscreen browses.
func SetupKioskCatalogRoutes(kioskGroup *gin.RouterGroup, itemHandler *handlers.ItemHandler) {
	kioskGroup.GET("/categories", itemHandler.GetCategories)
	kioskGroup.GET("/items", itemHandler.GetKioskItems)
}

// SetupCartRoutes sets up the cart and session routes.
func SetupCartRoutes(kioskGroup *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	kioskGroup.DELETE("/session", cartHandler.EndSession)

	cartRoutes := kioskGroup.Group("/cart")
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.DELETE("", cartHandler.ClearCart)
		cartRoutes.POST("/items", cartHandler.AddItem)
		cartRoutes.PATCH("/items/:id", cartHandler.ChangeQuantity)
		cartRoutes.DELETE("/items/:id", cartHandler.RemoveItem)
		cartRoutes.POST("/undo", cartHandler.Undo)
	}
}

// SetupCheckoutRoutes sets up the checkout routes.
func SetupCheckoutRoutes(kioskGroup *gin.RouterGroup, checkoutHandler *handlers.CheckoutHandler) {
	checkoutRoutes := kioskGroup.Group("/checkout")
	{
		checkoutRoutes.POST("/review", checkoutHandler.Review)
		checkoutRoutes.POST("/payment", checkoutHandler.BeginPayment)
		checkoutRoutes.POST("/cancel", checkoutHandler.Cancel)
		checkoutRoutes.POST("/pay", checkoutHandler.Pay)
	}
}

// SetupCategoryRoutes sets up the category admin routes.
func SetupCategoryRoutes(adminGroup *gin.RouterGroup, itemHandler *handlers.ItemHandler) {
	categoryRoutes := adminGroup.Group("/categories")
	{
		categoryRoutes.POST("", itemHandler.CreateCategory)
		categoryRoutes.GET("", itemHandler.GetCategories)
		categoryRoutes.DELETE("/:id", itemHandler.DeleteCategory)
	}
}

// SetupItemRoutes sets up the item admin routes.
func SetupItemRoutes(adminGroup *gin.RouterGroup, itemHandler *handlers.ItemHandler, stockHandler *handlers.StockHandler) {
	itemRoutes := adminGroup.Group("/items")
	{
		itemRoutes.POST("", itemHandler.CreateItem)
		itemRoutes.GET("", itemHandler.GetItems)
		itemRoutes.GET("/:id", itemHandler.GetItemByID)
		itemRoutes.PUT("/:id", itemHandler.UpdateItem)
		itemRoutes.DELETE("/:id", itemHandler.DeleteItem)
		itemRoutes.PUT("/:id/stock", stockHandler.AdjustStock)
	}
}

// SetupStockMovementRoutes sets up the stock ledger routes.
func SetupStockMovementRoutes(adminGroup *gin.RouterGroup, stockHandler *handlers.StockHandler) {
	adminGroup.GET("/stock-movements", stockHandler.GetMovements)
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(adminGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := adminGroup.Group("/orders")
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/void", orderHandler.VoidOrder)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(adminGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := adminGroup.Group("/reports")
	{
		reportRoutes.GET("/insights", reportHandler.GetInsights)
	}
}

func SetupAuditRoutes(adminGroup *gin.RouterGroup, auditHandler *handlers.AuditHandler) {
	adminGroup.GET("/audit-logs", auditHandler.GetAuditLogs)
}
