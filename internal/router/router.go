package router // package router wires HTTP routes to handlers and middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/hmweb77/macaroness/internal/handler"
	"github.com/hmweb77/macaroness/internal/middleware"
)

// Deps carries everything the routes need. Cache and RateLimit may be
// pass-through middleware when Redis is not configured.
type Deps struct {
	Store     handler.Pinger
	Catalog   *handler.CatalogHandler
	Capacity  *handler.CapacityHandler
	Orders    *handler.OrderHandler
	Operator  *handler.OperatorHandler
	JWTSecret string
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers the health checks.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))
}

// RegisterPublic registers the unauthenticated storefront API.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := orPassthrough(d.Cache)
	cat := e.Group("/v1/catalog", cache)
	cat.GET("/boxes", d.Catalog.Boxes)
	cat.GET("/flavors", d.Catalog.Flavors)
	cat.GET("/cities", d.Catalog.Cities)
	e.GET("/v1/cities/:name/delivery-window", d.Catalog.DeliveryWindow)

	e.GET("/v1/capacity/:date", d.Capacity.Get)
	e.GET("/v1/capacity/:date/stream", d.Capacity.Stream)

	e.POST("/v1/orders", d.Orders.Place, orPassthrough(d.RateLimit))
}

// RegisterOperator registers back-office routes behind a bearer token
// with the OPERATOR role.
func RegisterOperator(e *echo.Echo, d Deps) {
	g := e.Group("/v1/operator")
	g.Use(middleware.JWTAuth(d.JWTSecret))
	g.Use(middleware.RequireRole(middleware.RoleOperator))

	g.GET("/orders", d.Operator.ListOrders)
	g.GET("/orders/:id", d.Operator.GetOrder)
	g.POST("/orders/:id/cancel", d.Operator.CancelOrder)
	g.PATCH("/orders/:id/status", d.Operator.UpdateStatus)
	g.GET("/customers/:phone", d.Operator.GetCustomer)
}

// Register installs every route.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.Store)
	RegisterPublic(e, d)
	RegisterOperator(e, d)
}

func orPassthrough(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
