// Package host composes the desktop shell: the webview window, the command
// surface it calls, and the OS events that feed it.
package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/surrealist/surrealist/internal/api"
	"github.com/surrealist/surrealist/internal/auth"
	"github.com/surrealist/surrealist/internal/config"
	"github.com/surrealist/surrealist/internal/inbox"
	"github.com/surrealist/surrealist/internal/instance"
	"github.com/surrealist/surrealist/internal/logger"
	"github.com/surrealist/surrealist/internal/paths"
	"github.com/surrealist/surrealist/internal/platform"
	"github.com/surrealist/surrealist/internal/scheduler"
	"github.com/surrealist/surrealist/internal/scheduler/tasks"
	"github.com/surrealist/surrealist/internal/surreal"
	"github.com/surrealist/surrealist/internal/userconfig"
	"github.com/surrealist/surrealist/internal/websocket"
)

const databaseExitTimeout = 5 * time.Second

// Event is something the platform reports while the host runs.
type Event interface {
	isEvent()
}

// OpenedEvent carries URLs the OS asked the running app to open.
type OpenedEvent struct {
	URLs []string
}

// ExitEvent is delivered once when the event loop is about to end.
type ExitEvent struct{}

func (OpenedEvent) isEvent() {}
func (ExitEvent) isEvent()   {}

// Options configures a Host.
type Options struct {
	Settings *config.Config
	Paths    *paths.Resolver
	Logger   *logger.Logger
	// Guard is the single-instance holder. Forwarded launches reach the
	// inbox through it. Nil disables interception.
	Guard    *instance.Holder
	Frontend fs.FS
	Headless bool
	// App overrides the platform window, for tests.
	App platform.App
}

// Host owns every long-lived component of the process.
type Host struct {
	settings *config.Config
	log      *logger.Logger
	logger   zerolog.Logger
	guard    *instance.Holder

	hub       *websocket.Hub
	inbox     *inbox.Inbox
	intake    *inbox.Intake
	store     *userconfig.Store
	database  *surreal.Supervisor
	scheduler *scheduler.Scheduler
	server    *api.Server
	app       platform.App
	token     string

	mu       sync.Mutex
	listener net.Listener

	shutdownOnce sync.Once
}

// New builds the host and all of its components without starting any.
func New(opts Options) (*Host, error) {
	log := opts.Logger
	h := &Host{
		settings: opts.Settings,
		log:      log,
		logger:   log.WithComponent("host"),
		guard:    opts.Guard,
		hub:      websocket.NewHub(),
		inbox:    inbox.New(),
	}

	log.SetBroadcastHub(h.hub)
	if h.guard != nil {
		h.guard.SetLogger(log.Logger)
	}

	h.intake = inbox.NewIntake(h.inbox, h.hub, log.Logger)
	h.store = userconfig.NewStore(opts.Paths, log.Logger)
	h.database = surreal.NewSupervisor(opts.Settings.Database.Executable, h.hub, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return nil, err
	}
	if err := tasks.RegisterLogRotateTask(sched, log); err != nil {
		return nil, fmt.Errorf("failed to register log rotation: %w", err)
	}
	h.scheduler = sched

	authService, err := auth.NewService(0)
	if err != nil {
		return nil, err
	}
	h.token, err = authService.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	h.app = opts.App
	if h.app == nil {
		h.app = platform.NewApp(platform.AppConfig{
			ServerURL: opts.Settings.Server.URL(),
			Window:    platform.DefaultWindow(),
			Devtools:  opts.Settings.Window.Devtools,
			Headless:  opts.Headless,
			OnOpened: func(urls []string) {
				h.HandleEvent(OpenedEvent{URLs: urls})
			},
			OnQuit: func() {
				h.HandleEvent(ExitEvent{})
			},
		})
	}

	h.server = api.NewServer(api.Options{
		Hub:   h.hub,
		Auth:  authService,
		Token: h.token,
		Logs:  log,
		Commands: []api.CommandGroup{
			userconfig.NewHandlers(h.store),
			surreal.NewHandlers(h.database),
			inbox.NewHandlers(h.inbox),
			newWindowHandlers(h.app, log.Logger),
		},
		Frontend: opts.Frontend,
	}, log.Logger)

	return h, nil
}

// Setup runs once before the event loop: it records the launch arguments
// and, where the OS passes resources on the command line, takes them in.
func (h *Host) Setup(args []string) {
	h.logger.Info().Strs("args", args).Msg("launch args")

	if platform.ResourcesFromArgs() {
		h.intake.FromLaunchArgs(args)
	}
}

// HandleEvent dispatches a platform event.
func (h *Host) HandleEvent(ev Event) {
	switch ev := ev.(type) {
	case OpenedEvent:
		h.intake.FromOpened(ev.URLs)
	case ExitEvent:
		h.database.Kill()
	}
}

// Run serves the command surface and the instance guard, then blocks on
// the platform event loop until the window closes or ctx ends. It must be
// called from the main OS thread.
func (h *Host) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", h.settings.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.settings.Server.Address(), err)
	}
	h.mu.Lock()
	h.listener = l
	h.mu.Unlock()
	h.logger.Debug().Str("address", h.Addr().String()).Msg("command surface bound")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go h.hub.Run()
	h.scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return h.server.Serve(l)
	})

	if h.guard != nil {
		g.Go(func() error {
			return h.guard.Serve(gctx, h.onSecondInstance)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		h.app.Stop()
		return nil
	})

	runErr := h.app.Run()

	cancel()
	h.Shutdown()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return runErr
}

func (h *Host) onSecondInstance(p instance.Payload) {
	h.intake.FromSecondInstance(p.Args)
}

// Shutdown stops every component. It is safe to call more than once.
func (h *Host) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.database.Kill()
		ctx, cancel := context.WithTimeout(context.Background(), databaseExitTimeout)
		if err := h.database.Wait(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("database did not exit in time")
		}
		cancel()

		if err := h.server.Shutdown(context.Background()); err != nil {
			h.logger.Warn().Err(err).Msg("HTTP server did not shut down cleanly")
		}
		if err := h.scheduler.Stop(); err != nil {
			h.logger.Warn().Err(err).Msg("scheduler did not stop cleanly")
		}
		if h.guard != nil {
			if err := h.guard.Close(); err != nil {
				h.logger.Warn().Err(err).Msg("failed to release instance guard")
			}
		}

		h.hub.Stop()
		h.logger.Info().Msg("host stopped")
	})
}

// Addr returns the address the command surface listens on, or nil before
// Run has bound it.
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Token returns the session token the webview authenticates with.
func (h *Host) Token() string {
	return h.token
}

// Inbox returns the resource inbox.
func (h *Host) Inbox() *inbox.Inbox {
	return h.inbox
}
