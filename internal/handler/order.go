package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/service"
)

// OrderHandler places shopper orders.
type OrderHandler struct {
	cat *catalog.Catalog
	svc *service.ReservationService
	log *zap.Logger
	now func() time.Time
}

func NewOrderHandler(cat *catalog.Catalog, svc *service.ReservationService, log *zap.Logger) *OrderHandler {
	if cat == nil || svc == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{cat: cat, svc: svc, log: log.Named("orders-http"), now: time.Now}
}

// placeOrderRequest is the body of POST /v1/orders.
type placeOrderRequest struct {
	OrderNumber  string   `json:"order_number"`
	DeliveryDate string   `json:"delivery_date"`
	City         string   `json:"city"`
	BoxSize      int      `json:"box_size"`
	Flavors      []string `json:"flavors"`
	SurpriseMe   bool     `json:"surprise_me"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	Notes        string   `json:"notes"`
}

type placeOrderResponse struct {
	OrderID           string `json:"order_id"`
	OrderNumber       string `json:"order_number"`
	RemainingCapacity int    `json:"remaining_capacity"`
	TotalPrice        int    `json:"total_price"`
}

// Place validates the selection against the catalog and the delivery
// window, then reserves the box on the delivery date.
//
// Responses: 201 on success, 409 when the date cannot fit the box, 422
// for invalid selections, 503 under sustained contention.
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		return fieldError(c, "name")
	}
	if req.Address == "" {
		return fieldError(c, "address")
	}
	if req.DeliveryDate == "" {
		return fieldError(c, "delivery_date")
	}

	resolved, err := h.cat.Resolve(catalog.Selection{
		City:       req.City,
		BoxSize:    req.BoxSize,
		Flavors:    req.Flavors,
		SurpriseMe: req.SurpriseMe,
	})
	if err != nil {
		return validationError(c, err)
	}
	phone, err := catalog.NormalizePhone(req.Phone)
	if err != nil {
		return validationError(c, err)
	}
	date, err := model.ParseDateKey(req.DeliveryDate, h.cat.Location())
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid_date", "message": "expected YYYY-MM-DD"})
	}
	if err := h.cat.ValidateDeliveryDate(h.now(), resolved.City, date); err != nil {
		return validationError(c, err)
	}

	res, err := h.svc.Reserve(c.Request().Context(), service.ReserveRequest{
		DateKey: req.DeliveryDate,
		BoxSize: resolved.Box.Pieces,
		Customer: service.Customer{
			Name:    req.Name,
			Phone:   phone,
			Address: req.Address,
			Notes:   strings.TrimSpace(req.Notes),
		},
		Payload: service.OrderPayload{
			OrderNumber:   req.OrderNumber,
			City:          resolved.City.Name,
			DeliveryHours: resolved.City.DeliveryHours,
			BoxPrice:      resolved.Quote.BoxPrice,
			DeliveryPrice: resolved.Quote.DeliveryPrice,
			TotalPrice:    resolved.Quote.Total,
			Flavors:       resolved.Flavors,
		},
	})
	if err != nil {
		h.log.Info("order rejected",
			zap.String("date", req.DeliveryDate), zap.Int("box_size", resolved.Box.Pieces), zap.Error(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, placeOrderResponse{
		OrderID:           res.OrderID,
		OrderNumber:       res.OrderNumber,
		RemainingCapacity: res.RemainingCapacity,
		TotalPrice:        res.Order.TotalPrice,
	})
}
