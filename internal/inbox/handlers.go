package inbox

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	inbox *Inbox
}

func NewHandlers(inbox *Inbox) *Handlers {
	return &Handlers{inbox: inbox}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/get_opened_resources", h.GetOpenedResources)
}

// GetOpenedResources returns a snapshot of the inbox
// POST /api/commands/get_opened_resources
func (h *Handlers) GetOpenedResources(c echo.Context) error {
	return c.JSON(http.StatusOK, h.inbox.Snapshot())
}
