package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/feed"
	"github.com/hmweb77/macaroness/internal/handler"
	"github.com/hmweb77/macaroness/internal/repository"
	"github.com/hmweb77/macaroness/internal/service"
)

func newDeps() Deps {
	store := repository.NewMemoryStore()
	cat := catalog.New(catalog.DefaultOpeningDate, time.UTC)
	fd := feed.New(feed.NewHub(), store, 648, nil)
	svc := service.NewReservationService(store, fd, nil, zap.NewNop(), service.ReservationOptions{})
	ledger := service.NewLedger(store, 648, 6, nil)
	return Deps{
		Store:     store,
		Catalog:   handler.NewCatalogHandler(cat),
		Capacity:  handler.NewCapacityHandler(ledger, fd, nil),
		Orders:    handler.NewOrderHandler(cat, svc, nil),
		Operator:  handler.NewOperatorHandler(svc, ledger, store, nil),
		JWTSecret: "secret",
	}
}

func TestRegisterInstallsRoutes(t *testing.T) {
	e := echo.New()
	Register(e, newDeps())

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /v1/catalog/boxes",
		"GET /v1/catalog/flavors",
		"GET /v1/catalog/cities",
		"GET /v1/cities/:name/delivery-window",
		"GET /v1/capacity/:date",
		"GET /v1/capacity/:date/stream",
		"POST /v1/orders",
		"GET /v1/operator/orders",
		"GET /v1/operator/orders/:id",
		"POST /v1/operator/orders/:id/cancel",
		"PATCH /v1/operator/orders/:id/status",
		"GET /v1/operator/customers/:phone",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestOperatorRoutesAreProtected(t *testing.T) {
	e := echo.New()
	Register(e, newDeps())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/operator/orders?date=2025-11-11", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog/flavors", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareHooks(t *testing.T) {
	d := newDeps()
	calls := 0
	count := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { calls++; return next(c) }
	}
	d.Cache = count
	d.RateLimit = count

	e := echo.New()
	Register(e, d)
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/catalog/cities", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/orders", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/capacity/2025-11-11", nil))
	assert.Equal(t, 2, calls)
}
