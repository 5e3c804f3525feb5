package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/feed"
	"github.com/hmweb77/macaroness/internal/service"
)

// CapacityHandler exposes the availability of a delivery date, both as
// a one-off read and as a Server-Sent Events stream.
type CapacityHandler struct {
	ledger    *service.Ledger
	feed      *feed.Feed
	log       *zap.Logger
	keepAlive time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

func NewCapacityHandler(ledger *service.Ledger, f *feed.Feed, log *zap.Logger) *CapacityHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CapacityHandler{
		ledger:    ledger,
		feed:      f,
		log:       log.Named("capacity-http"),
		keepAlive: 15 * time.Second,
		closing:   make(chan struct{}),
	}
}

// Close ends every open stream and refuses new ones. The server calls it
// on shutdown since stream requests never finish on their own.
func (h *CapacityHandler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// Get returns the availability of :date. Storage failures read as the
// full daily capacity.
func (h *CapacityHandler) Get(c echo.Context) error {
	date := c.Param("date")
	if !validDate(date) {
		return badRequest(c, "invalid date, expected YYYY-MM-DD")
	}
	return c.JSON(http.StatusOK, h.ledger.Availability(c.Request().Context(), date))
}

type capacityEvent struct {
	DateKey   string `json:"date"`
	Remaining int    `json:"remaining_capacity"`
	SoldOut   bool   `json:"sold_out"`
}

// Stream pushes the remaining capacity of :date as "capacity" events
// until the client disconnects. Slow clients only see the latest value.
func (h *CapacityHandler) Stream(c echo.Context) error {
	date := c.Param("date")
	if !validDate(date) {
		return badRequest(c, "invalid date, expected YYYY-MM-DD")
	}
	select {
	case <-h.closing:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "shutting_down"})
	default:
	}
	ctx := c.Request().Context()

	// One slot, single producer: the feed serializes callbacks per
	// subscription, so drain-then-send never blocks.
	latest := make(chan int, 1)
	unsubscribe := h.feed.Subscribe(ctx, date, func(remaining int) {
		select {
		case <-latest:
		default:
		}
		latest <- remaining
	}, func(err error) {
		h.log.Warn("subscription degraded", zap.String("date", date), zap.Error(err))
	})
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.closing:
			return nil
		case remaining := <-latest:
			data, err := json.Marshal(capacityEvent{DateKey: date, Remaining: remaining, SoldOut: h.ledger.SoldOut(remaining)})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: capacity\ndata: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
