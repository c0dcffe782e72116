package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/config"
	"github.com/yeremiapane/shagomeals/controllers"
	"github.com/yeremiapane/shagomeals/database"
	"github.com/yeremiapane/shagomeals/kds"
	"github.com/yeremiapane/shagomeals/metrics"
	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
)

// authAttemptsPerMinute bounds /login and /register per client IP.
const authAttemptsPerMinute = 10

// SetupRouter wires stores, services and controllers onto a gin engine.
// A nil hub disables the kitchen display stream.
func SetupRouter(db *gorm.DB, cfg *config.Config, fees services.FeeSource, hub *kds.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	if cfg.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())
	}

	var notifier services.Notifier = services.NopNotifier{}
	if hub != nil {
		notifier = hub
	}

	catalog := database.NewCatalogStore(db)
	directory := database.NewDirectoryStore(db)
	accounts := database.NewAccountStore(db)

	carts := services.NewCartService(db, catalog)
	checkout := services.NewCheckoutService(db, fees, notifier, cfg.OrderIDRetries)
	orders := services.NewOrderService(db, notifier)

	userCtrl := controllers.NewUserController(accounts, cfg.JWTTTL)
	menuCtrl := controllers.NewMenuController(catalog)
	cartCtrl := controllers.NewCartController(carts)
	checkoutCtrl := controllers.NewCheckoutController(checkout)
	orderCtrl := controllers.NewOrderController(orders)
	customerCtrl := controllers.NewCustomerController(orders)
	adminCtrl := controllers.NewAdminController(orders)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ----------------------------------------------------------------
	//                      ACCOUNTS
	// ----------------------------------------------------------------
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter(authAttemptsPerMinute))
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	account := r.Group("/")
	account.Use(middlewares.AuthMiddleware(false))
	{
		account.POST("/logout", userCtrl.Logout)
		account.GET("/account", userCtrl.Profile)
		account.POST("/account/addresses", middlewares.RequireRole(models.RoleCustomer), userCtrl.AddAddress)
	}

	// ----------------------------------------------------------------
	//                      BRANCH SCOPED
	// ----------------------------------------------------------------
	scope := middlewares.RequestScope(directory, accounts)
	branch := r.Group("/api/places/:place/branches/:branch")

	menu := branch.Group("/menu")
	menu.Use(scope)
	{
		menu.GET("", menuCtrl.List)
		menu.GET("/:item", menuCtrl.Item)
	}

	customer := branch.Group("/")
	customer.Use(middlewares.AuthMiddleware(false), middlewares.RequireRole(models.RoleCustomer), scope)
	{
		customer.GET("/cart", cartCtrl.Get)
		customer.POST("/cart", cartCtrl.Action)
		customer.POST("/cart/items", cartCtrl.AddItem)
		customer.DELETE("/cart/items/:line", cartCtrl.RemoveItem)
		customer.PATCH("/cart/items/:line", cartCtrl.ChangeQuantity)
		customer.PUT("/cart/items/:line/choices", cartCtrl.UpdateChoices)

		customer.GET("/checkout", checkoutCtrl.Totals)
		customer.POST("/checkout", checkoutCtrl.Place)

		customer.GET("/my-orders", customerCtrl.MyOrders)
		customer.GET("/my-orders/:code", customerCtrl.MyOrder)
	}

	staff := branch.Group("/")
	staff.Use(middlewares.AuthMiddleware(false), middlewares.RequireRole(models.RoleStaff, models.RoleMerchant), scope)
	{
		staff.GET("/orders", orderCtrl.List)
		staff.GET("/orders/:code", orderCtrl.Get)
		staff.PATCH("/orders/:code/status", orderCtrl.UpdateStatus)
		staff.PATCH("/orders/:code/payment", orderCtrl.UpdatePayment)
		staff.POST("/orders/:code/cancel", orderCtrl.Cancel)

		staff.GET("/admin/stats", adminCtrl.Stats)
	}

	if hub != nil {
		kdsCtrl := controllers.NewKDSController(hub)
		branch.GET("/kds", middlewares.AuthMiddleware(true), middlewares.RequireRole(models.RoleStaff, models.RoleMerchant), scope, kdsCtrl.Connect)
	}

	return r
}
