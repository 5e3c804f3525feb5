package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/model"
)

// CatalogHandler serves the static storefront reference data.
type CatalogHandler struct {
	cat *catalog.Catalog
	now func() time.Time
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	if cat == nil {
		panic("nil catalog passed to NewCatalogHandler")
	}
	return &CatalogHandler{cat: cat, now: time.Now}
}

// Boxes lists box sizes. With ?city= only the boxes orderable from that
// city are returned, each with its delivered price.
func (h *CatalogHandler) Boxes(c echo.Context) error {
	name := c.QueryParam("city")
	if name == "" {
		return c.JSON(http.StatusOK, echo.Map{"boxes": h.cat.Boxes()})
	}
	city, ok := h.cat.City(name)
	if !ok {
		return validationError(c, catalog.ErrUnknownCity)
	}
	type boxView struct {
		model.BoxSize
		Quote catalog.Quote `json:"quote"`
	}
	boxes := h.cat.BoxesFor(city)
	out := make([]boxView, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, boxView{BoxSize: b, Quote: catalog.QuoteFor(b, city)})
	}
	return c.JSON(http.StatusOK, echo.Map{"city": city.Name, "boxes": out})
}

func (h *CatalogHandler) Flavors(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"flavors": h.cat.Flavors()})
}

func (h *CatalogHandler) Cities(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"cities": h.cat.Cities()})
}

// DeliveryWindow returns the earliest deliverable date for a city.
func (h *CatalogHandler) DeliveryWindow(c echo.Context) error {
	city, ok := h.cat.City(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown_city"})
	}
	earliest := h.cat.EarliestDeliveryDate(h.now(), city)
	for earliest.Weekday() == time.Sunday {
		earliest = earliest.AddDate(0, 0, 1)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"city":           city.Name,
		"delivery_hours": city.DeliveryHours,
		"delivery_price": city.DeliveryPrice,
		"earliest_date":  model.DateKey(earliest),
		"closed_days":    []string{"sunday"},
	})
}
