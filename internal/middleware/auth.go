package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "authgate/internal/errors"
	"authgate/internal/token"
)

// ClaimsContextKey is where the guard stores verified claims on the request.
const ClaimsContextKey = "identity"

// AccessGuard rejects requests without a valid bearer token and attaches the
// verified claims to the request context. Verification is signature and
// expiry only; the user record is not re-fetched.
func AccessGuard(tokens *token.Service) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.NewHTTPError(http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// ClaimsFrom extracts the claims the guard attached, if any.
func ClaimsFrom(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*token.Claims)
	return claims, ok
}
