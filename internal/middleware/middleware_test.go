package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/config"
	"github.com/hmweb77/macaroness/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func operatorEcho(secret string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1/operator", JWTAuth(secret), RequireRole(RoleOperator))
	g.GET("/whoami", func(c echo.Context) error { return c.String(http.StatusOK, Subject(c)) })
	return e
}

func TestJWTAuthAndRole(t *testing.T) {
	e := operatorEcho("secret")

	rec := serve(e, http.MethodGet, "/v1/operator/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/v1/operator/whoami", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	courier, err := utils.NewAccessToken("secret", "karim", "COURIER", 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/v1/operator/whoami", map[string]string{"Authorization": "Bearer " + courier.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	forged, err := utils.NewAccessToken("not-the-secret", "amina", RoleOperator, 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/v1/operator/whoami", map[string]string{"Authorization": "Bearer " + forged.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	op, err := utils.NewAccessToken("secret", "amina", RoleOperator, 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/v1/operator/whoami", map[string]string{"Authorization": "Bearer " + op.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "amina", rec.Body.String())
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.POST("/v1/orders", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, rdb, zap.NewNop()))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/v1/orders", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodPost, "/v1/orders", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := serve(e, http.MethodPost, "/v1/orders", map[string]string{"X-Real-IP": "10.0.0.9"})
	assert.Equal(t, http.StatusCreated, other.Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Hour, Prefix: "rl"}
	e := echo.New()
	e.POST("/v1/orders", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, rdb, nil))

	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/orders", nil).Code)
	}
}

func TestResponseCacheHitAndMiss(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "test:cache",
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/catalog/boxes", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewResponseCache(cfg, rdb, zap.NewNop()))

	first := serve(e, http.MethodGet, "/v1/catalog/boxes?city=Rabat", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/v1/catalog/boxes?city=Rabat", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	third := serve(e, http.MethodGet, "/v1/catalog/boxes?city=Fes", nil)
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/v1/catalog/boxes?city=Rabat", nil).Header().Get("X-Cache"))
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "c"}
	e := echo.New()
	e.GET("/v1/catalog/cities/:name", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown_city"})
	}, NewResponseCache(cfg, rdb, nil))

	serve(e, http.MethodGet, "/v1/catalog/cities/Paris", nil)
	rec := serve(e, http.MethodGet, "/v1/catalog/cities/Paris", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
