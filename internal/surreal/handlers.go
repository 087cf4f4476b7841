package surreal

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	supervisor *Supervisor
}

func NewHandlers(supervisor *Supervisor) *Handlers {
	return &Handlers{supervisor: supervisor}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/start_database", h.StartDatabase)
	g.POST("/stop_database", h.StopDatabase)
}

// StartDatabaseRequest is the body of start_database.
type StartDatabaseRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Port       int    `json:"port"`
	Driver     string `json:"driver"`
	Storage    string `json:"storage"`
	Executable string `json:"executable"`
}

func (r StartDatabaseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&r.Driver, validation.Required),
		validation.Field(&r.Storage, validation.When(r.Driver != DriverMemory, validation.Required)),
	)
}

func (r StartDatabaseRequest) options() StartOptions {
	return StartOptions{
		Username:   r.Username,
		Password:   r.Password,
		Port:       r.Port,
		Driver:     r.Driver,
		Storage:    r.Storage,
		Executable: r.Executable,
	}
}

// StartDatabase launches the local database
// POST /api/commands/start_database
func (h *Handlers) StartDatabase(c echo.Context) error {
	var req StartDatabaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.supervisor.Start(req.options()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, nil)
}

// StopDatabase kills the local database and reports whether one was running
// POST /api/commands/stop_database
func (h *Handlers) StopDatabase(c echo.Context) error {
	return c.JSON(http.StatusOK, h.supervisor.Stop())
}
