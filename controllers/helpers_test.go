package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/middleware"
)

// authedContext builds an echo context carrying a decoded JWT for userID,
// the way the JWT middleware leaves it on protected routes.
func authedContext(t *testing.T, method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwt.Token{
		Claims: &middleware.JwtCustomClaims{UserID: userID},
		Valid:  true,
	})
	return c, rec
}
