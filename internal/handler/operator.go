package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/middleware"
	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/service"
)

// CustomerReader looks up the customer directory.
type CustomerReader interface {
	GetCustomer(ctx context.Context, phone string) (model.Customer, error)
}

// OperatorHandler is the back-office surface: order lists, lookups and
// lifecycle changes. All routes sit behind the operator role.
type OperatorHandler struct {
	svc       *service.ReservationService
	ledger    *service.Ledger
	customers CustomerReader
	log       *zap.Logger
}

func NewOperatorHandler(svc *service.ReservationService, ledger *service.Ledger, customers CustomerReader, log *zap.Logger) *OperatorHandler {
	if svc == nil || ledger == nil || customers == nil {
		panic("nil dependency passed to NewOperatorHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OperatorHandler{svc: svc, ledger: ledger, customers: customers, log: log.Named("operator-http")}
}

// ListOrders returns the orders of ?date= together with its availability.
func (h *OperatorHandler) ListOrders(c echo.Context) error {
	date := c.QueryParam("date")
	if !validDate(date) {
		return badRequest(c, "invalid date, expected YYYY-MM-DD")
	}
	ctx := c.Request().Context()
	orders, err := h.svc.OrdersForDate(ctx, date)
	if err != nil {
		h.log.Error("list orders failed", zap.String("date", date), zap.Error(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":         date,
		"availability": h.ledger.Availability(ctx, date),
		"orders":       orders,
	})
}

func (h *OperatorHandler) GetOrder(c echo.Context) error {
	o, err := h.svc.Order(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// CancelOrder cancels an order and restores its units. Repeating the
// call is harmless.
func (h *OperatorHandler) CancelOrder(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	h.log.Info("order cancelled by operator", zap.String("order_id", id), zap.String("operator", middleware.Subject(c)))
	return h.GetOrder(c)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order to the status in the body.
func (h *OperatorHandler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	status := model.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid_status"})
	}
	id := c.Param("id")
	if err := h.svc.UpdateStatus(c.Request().Context(), id, status); err != nil {
		return writeError(c, err)
	}
	h.log.Info("order status changed",
		zap.String("order_id", id), zap.String("status", string(status)), zap.String("operator", middleware.Subject(c)))
	return h.GetOrder(c)
}

// GetCustomer returns the directory entry of :phone.
func (h *OperatorHandler) GetCustomer(c echo.Context) error {
	phone, err := catalog.NormalizePhone(c.Param("phone"))
	if err != nil {
		return validationError(c, err)
	}
	cust, err := h.customers.GetCustomer(c.Request().Context(), phone)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cust)
}
