package host

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/surrealist/surrealist/internal/platform"
)

type windowHandlers struct {
	app    platform.App
	logger zerolog.Logger
}

func newWindowHandlers(app platform.App, logger zerolog.Logger) *windowHandlers {
	return &windowHandlers{
		app:    app,
		logger: logger.With().Str("component", "window").Logger(),
	}
}

func (h *windowHandlers) RegisterRoutes(g *echo.Group) {
	g.POST("/toggle_devtools", h.ToggleDevtools)
}

// ToggleDevtools opens or closes the web inspector
// POST /api/commands/toggle_devtools
func (h *windowHandlers) ToggleDevtools(c echo.Context) error {
	if err := h.app.ToggleDevtools(); err != nil {
		if !errors.Is(err, platform.ErrDevtoolsUnsupported) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.logger.Debug().Msg("devtools unavailable")
	}
	return c.JSON(http.StatusOK, nil)
}
