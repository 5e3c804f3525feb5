package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxSubject = "user_id"
	CtxRole    = "role"
)

// JWTAuth validates a Bearer HS256 token signed with secret and stores its
// "sub" and "role" claims in the context under CtxSubject and CtxRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(CtxSubject, claims["sub"])
			c.Set(CtxRole, claims["role"])
			return next(c)
		}
	}
}

// Subject returns the authenticated operator, or "anon" when the request
// carries no token.
func Subject(c echo.Context) string {
	if s, ok := c.Get(CtxSubject).(string); ok && s != "" {
		return s
	}
	return "anon"
}
