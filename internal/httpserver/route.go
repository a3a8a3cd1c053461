package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/db"
	"github.com/Skotchmaster/go_outdoor/internal/metrics"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ProductHandler *ProductHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP

	AuthMW  *authmw.AutoRefresh
	DB      *gorm.DB
	Metrics *metrics.Metrics
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	requireAuth := d.AuthMW.RequireAuth

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/verify", d.AuthHandler.Verify)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.GET("/profile", d.AuthHandler.Profile, requireAuth)
	if d.AuthHandler.Google != nil {
		auth.GET("/google", d.AuthHandler.GoogleStart)
		auth.GET("/google/callback", d.AuthHandler.GoogleCallback)
	}

	api := e.Group("/api")
	api.GET("/products", d.ProductHandler.ListProducts)
	api.GET("/products/search", d.ProductHandler.SearchProducts)
	api.GET("/products/:id", d.ProductHandler.GetProduct)
	api.POST("/midtrans-notification", d.PaymentHandler.Notification)
	api.GET("/config/midtrans", d.PaymentHandler.ClientConfig)

	api.GET("/cart", d.CartHandler.GetCart, requireAuth)
	api.POST("/cart/add", d.CartHandler.AddToCart, requireAuth)
	api.PUT("/cart/update", d.CartHandler.UpdateCart, requireAuth)
	api.DELETE("/cart/delete/:id", d.CartHandler.DeleteCartItem, requireAuth)
	api.POST("/process-order", d.OrderHandler.ProcessOrder, requireAuth)
	api.GET("/orders", d.OrderHandler.ListOrders, requireAuth)
}
