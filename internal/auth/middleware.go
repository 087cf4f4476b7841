package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenQueryParam carries the token where headers cannot be set (websocket upgrade).
const TokenQueryParam = "token"

// RequireToken rejects requests without a valid session token.
func RequireToken(s *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				token = c.QueryParam(TokenQueryParam)
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			if _, err := s.ValidateToken(token); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
