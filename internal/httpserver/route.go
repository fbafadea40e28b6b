package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/db"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/metrics"
	middleware "github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/auth"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/csrf"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	PaymentHandler *PaymentHTTP
	CartHandler    *CartHTTP
	CatalogHandler *CatalogHTTP
	OrderHandler   *OrderHTTP
	OfferHandler   *OfferHTTP
	DesignHandler  *DesignHTTP

	JWTSecret []byte
	DB        *gorm.DB
	Cache     Pinger
	Gatherer  prometheus.Gatherer

	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigins []string
	SecureCookies  bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)
	api := e.Group("/api", csrf.Middleware(csrf.Config{
		AllowedOrigins: d.AllowedOrigins,
		Secure:         d.SecureCookies,
	}))

	payment := api.Group("/payment", paymentRateLimiter(d.RateLimitRPS, d.RateLimitBurst), authMW.RequireAuth)
	payment.POST("/create-order", d.PaymentHandler.CreateOrder)
	payment.POST("/verify", d.PaymentHandler.Verify)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	cart := api.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("", d.CartHandler.UpdateCartItem)
	cart.DELETE("/:itemId", d.CartHandler.RemoveFromCart)

	api.GET("/auth/orders", d.OrderHandler.MyOrders, authMW.RequireAuth)

	designs := api.Group("/designs", authMW.RequireAuth)
	designs.POST("", d.DesignHandler.Submit)
	designs.GET("/my-designs", d.DesignHandler.ListMine)
	designs.GET("/:id", d.DesignHandler.GetMine)
	designs.DELETE("/:id", d.DesignHandler.DeleteMine)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/products", d.CatalogHandler.ListAllProducts)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PUT("/products/:id", d.CatalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/order/status/:id", d.OrderHandler.UpdateStatus)
	admin.GET("/offers", d.OfferHandler.List)
	admin.POST("/offers", d.OfferHandler.Create)
	admin.POST("/offers/apply", d.OfferHandler.Apply)
	admin.GET("/designs", d.DesignHandler.ListAll)
	admin.PATCH("/designs/:id/status", d.DesignHandler.UpdateStatus)
}

func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()
	if d.DB != nil {
		if err := db.Ping(ctx, d.DB); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
		}
	}
	return c.NoContent(http.StatusOK)
}

// paymentRateLimiter limits each client IP on the payment routes.
// A non-positive rps disables limiting.
func paymentRateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if burst <= 0 {
		burst = 1
	}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: echomw.DefaultSkipper,
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "rate limiter error")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
