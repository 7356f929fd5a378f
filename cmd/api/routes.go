package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bluemedix-system/config"
	"bluemedix-system/internal/auth"
	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/handlers"
	"bluemedix-system/internal/middleware"
)

type deps struct {
	users      *handlers.UserHandler
	franchises *handlers.FranchiseHandler
	catalog    *handlers.CatalogHandler
	stock      *handlers.StockHandler
	cart       *handlers.CartHandler
	orders     *handlers.OrderHandler
	addresses  *handlers.AddressHandler
	tokens     *auth.TokenManager
}

func registerRoutes(r *gin.Engine, cfg config.Config, d deps) {
	r.Use(middleware.CORS())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(cfg.RateSpec))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// --- Public API Group ---
	public := r.Group("/api")
	{
		authGroup := public.Group("/auth")
		{
			authGroup.POST("/register", d.users.Register)
			authGroup.POST("/login", d.users.Login)
			authGroup.POST("/forgot-password", d.users.ForgotPassword)
			authGroup.POST("/reset-password", d.users.ResetPassword)
		}

		public.GET("/products", d.catalog.ListProducts)
		public.GET("/products/:id", d.catalog.GetProduct)
		public.GET("/categories", d.catalog.ListCategories)
		public.GET("/franchises", d.franchises.List)
		public.GET("/franchises/:id", d.franchises.Get)
	}

	// --- Protected API Group ---
	protected := r.Group("/api")
	protected.Use(middleware.JWTAuth(d.tokens))
	{
		protected.GET("/me", d.users.Me)

		addresses := protected.Group("/addresses")
		{
			addresses.POST("", d.addresses.Create)
			addresses.GET("", d.addresses.List)
			addresses.PUT("/:id", d.addresses.Update)
			addresses.DELETE("/:id", d.addresses.Delete)
		}

		cart := protected.Group("/cart")
		{
			cart.POST("/items", d.cart.Add)
			cart.GET("/items", d.cart.List)
			cart.PUT("/items/:itemId", d.cart.UpdateQuantity)
			cart.DELETE("/items/:itemId", d.cart.Remove)
			cart.DELETE("/items", d.cart.Clear)
			cart.POST("/checkout", d.cart.Checkout)
		}

		protected.GET("/my-orders", d.orders.MyOrders)

		orders := protected.Group("/orders")
		{
			orders.POST("", d.orders.Create)
			orders.GET("/:orderId", d.orders.Get)
		}

		// Admin or the owning franchise's manager; handlers enforce the
		// franchise scope.
		managed := protected.Group("")
		managed.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleOrderManager))
		{
			managed.PATCH("/orders/:orderId/status", d.orders.UpdateStatus)
			managed.GET("/franchises/:id/orders", d.orders.FranchiseOrders)

			stock := managed.Group("/franchise-stock")
			{
				stock.PUT("/franchise/:franchiseId/product/:productId", d.stock.Mutate)
				stock.GET("/franchise/:franchiseId", d.stock.ByFranchise)
				stock.GET("/franchise/:franchiseId/movements", d.stock.Movements)
			}
		}

		admin := protected.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/orders", d.orders.ListAll)
			admin.PATCH("/orders/:orderId/payment", d.orders.UpdatePayment)

			admin.GET("/users", d.users.ListUsers)
			admin.GET("/users/:id", d.users.GetUser)
			admin.PUT("/users/:id", d.users.UpdateUser)
			admin.PUT("/users/:id/franchise", d.users.AssignManager)

			admin.POST("/franchises", d.franchises.Create)
			admin.PUT("/franchises/:id", d.franchises.Update)
			admin.DELETE("/franchises/:id", d.franchises.Delete)

			admin.POST("/categories", d.catalog.CreateCategory)
			admin.PUT("/categories/:id", d.catalog.UpdateCategory)
			admin.DELETE("/categories/:id", d.catalog.DeleteCategory)

			admin.POST("/products", d.catalog.CreateProduct)
			admin.PUT("/products/:id", d.catalog.UpdateProduct)
			admin.DELETE("/products/:id", d.catalog.DeleteProduct)
			admin.GET("/reports/low-warehouse-stock", d.catalog.LowWarehouseStock)

			admin.GET("/franchise-stock/product/:productId", d.stock.ByProduct)
		}
	}
}
