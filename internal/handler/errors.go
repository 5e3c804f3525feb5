package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/model"
	"github.com/hmweb77/macaroness/internal/repository"
	"github.com/hmweb77/macaroness/internal/service"
)

// validationCodes maps catalog rejections to stable error codes.
var validationCodes = []struct {
	err  error
	code string
}{
	{catalog.ErrUnknownCity, "unknown_city"},
	{catalog.ErrUnknownBox, "unknown_box"},
	{catalog.ErrUnknownFlavor, "unknown_flavor"},
	{catalog.ErrRegionRestricted, "region_restricted"},
	{catalog.ErrTooManyFlavors, "too_many_flavors"},
	{catalog.ErrFlavorsRequired, "flavors_required"},
	{catalog.ErrFixedAssortment, "fixed_assortment"},
	{catalog.ErrDateTooEarly, "date_too_early"},
	{catalog.ErrClosedOnSunday, "closed_on_sunday"},
	{catalog.ErrInvalidPhone, "invalid_phone"},
	{service.ErrInvalidRequest, "invalid_request"},
}

func validationError(c echo.Context, err error) error {
	code := "invalid_request"
	for _, v := range validationCodes {
		if errors.Is(err, v.err) {
			code = v.code
			break
		}
	}
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": code, "message": err.Error()})
}

func fieldError(c echo.Context, field string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "missing_field", "field": field})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeError translates service and repository errors into responses.
func writeError(c echo.Context, err error) error {
	var ice *service.InsufficientCapacityError
	switch {
	case errors.As(err, &ice):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":              "insufficient_capacity",
			"remaining_capacity": ice.Remaining,
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		return validationError(c, err)
	case errors.Is(err, service.ErrRetriesExhausted), errors.Is(err, repository.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily_unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

// validDate reports whether raw is a YYYY-MM-DD date key.
func validDate(raw string) bool {
	_, err := model.ParseDateKey(raw, nil)
	return err == nil
}
