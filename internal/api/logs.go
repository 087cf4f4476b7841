package api

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/surrealist/surrealist/internal/logger"
)

// LogsProvider provides access to log data.
type LogsProvider interface {
	GetRecentLogs() []logger.ConsoleEntry
	GetLogFilePath() string
}

// LogsHandlers serves the buffered host log and the log file.
type LogsHandlers struct {
	provider LogsProvider
}

func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries, oldest first
// GET /api/logs
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	logs := h.provider.GetRecentLogs()
	if logs == nil {
		logs = []logger.ConsoleEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the active log file
// GET /api/logs/download
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, logger.FileName)
}
