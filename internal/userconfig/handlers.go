package userconfig

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	store *Store
}

func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/load_config", h.LoadConfig)
	g.POST("/load_legacy_config", h.LoadLegacyConfig)
	g.POST("/save_config", h.SaveConfig)
	g.POST("/has_legacy_config", h.HasLegacyConfig)
	g.POST("/complete_legacy_migrate", h.CompleteLegacyMigrate)
}

// SaveConfigRequest is the body of save_config. Config is required.
type SaveConfigRequest struct {
	Config *string `json:"config"`
}

// LoadConfig returns the config blob
// POST /api/commands/load_config
func (h *Handlers) LoadConfig(c echo.Context) error {
	blob, err := h.store.Load()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, blob)
}

// LoadLegacyConfig returns the legacy config blob
// POST /api/commands/load_legacy_config
func (h *Handlers) LoadLegacyConfig(c echo.Context) error {
	blob, err := h.store.LoadLegacy()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, blob)
}

// SaveConfig persists the config blob
// POST /api/commands/save_config
func (h *Handlers) SaveConfig(c echo.Context) error {
	var req SaveConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Config == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "config is required")
	}

	if err := h.store.Save(*req.Config); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, nil)
}

// HasLegacyConfig reports whether a legacy config file exists
// POST /api/commands/has_legacy_config
func (h *Handlers) HasLegacyConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.HasLegacy())
}

// CompleteLegacyMigrate moves the legacy config aside
// POST /api/commands/complete_legacy_migrate
func (h *Handlers) CompleteLegacyMigrate(c echo.Context) error {
	if err := h.store.CompleteLegacyMigrate(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, nil)
}
