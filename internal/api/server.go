package api

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/surrealist/surrealist/internal/api/middleware"
	"github.com/surrealist/surrealist/internal/auth"
	"github.com/surrealist/surrealist/internal/websocket"
)

// CommandGroup registers webview commands under /api/commands.
type CommandGroup interface {
	RegisterRoutes(g *echo.Group)
}

// Options wires the server to the rest of the host.
type Options struct {
	Hub      *websocket.Hub
	Auth     *auth.Service
	Token    string
	Logs     LogsProvider
	Commands []CommandGroup
	// Frontend is the built webview bundle. Nil serves only the API.
	Frontend fs.FS
}

// Server is the localhost HTTP server the webview talks to.
type Server struct {
	echo   *echo.Echo
	opts   Options
	logger zerolog.Logger
}

// NewServer creates a new API server instance.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
		Skipper: func(c echo.Context) bool {
			// Log reads would otherwise feed the log they read.
			return c.Path() == "/api/logs"
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	requireToken := auth.RequireToken(s.opts.Auth)

	commands := s.echo.Group("/api/commands", requireToken)
	for _, group := range s.opts.Commands {
		group.RegisterRoutes(commands)
	}

	if s.opts.Logs != nil {
		NewLogsHandlers(s.opts.Logs).RegisterRoutes(s.echo.Group("/api/logs", requireToken))
	}

	if s.opts.Hub != nil {
		s.echo.GET("/ws", s.opts.Hub.HandleWebSocket, requireToken)
	}

	if s.opts.Frontend != nil {
		registerFrontendHandler(s.echo, s.opts.Frontend, s.opts.Token, s.logger)
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Serve accepts HTTP connections on l. It returns nil once the server has
// been shut down.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info().Str("address", l.Addr().String()).Msg("starting HTTP server")
	s.echo.Listener = l
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, giving in-flight requests up to
// ten seconds unless ctx ends sooner.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
