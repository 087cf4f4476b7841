package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/surrealist/surrealist/internal/config"
	"github.com/surrealist/surrealist/internal/host"
	"github.com/surrealist/surrealist/internal/instance"
	"github.com/surrealist/surrealist/internal/logger"
	"github.com/surrealist/surrealist/internal/paths"
	"github.com/surrealist/surrealist/internal/startup"
	"github.com/surrealist/surrealist/web"
)

func init() {
	// AppKit and the Win32 message loop must run on the thread that
	// started the process.
	runtime.LockOSThread()
}

// bootstrapLog writes early diagnostic messages to a file before the main logger is initialized.
// GUI builds on Windows have no console, so this is the only trace of a failed start.
func bootstrapLog(logDir, msg string) {
	if logDir == "" {
		logDir = "./logs"
	}

	_ = os.MkdirAll(logDir, 0755)
	f, err := os.OpenFile(filepath.Join(logDir, "bootstrap.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] %s\n", timestamp, msg)
}

func main() {
	os.Exit(run())
}

func run() int {
	resolver, err := paths.New()
	if err != nil {
		bootstrapLog("", fmt.Sprintf("FATAL: failed to resolve directories: %v", err))
		return 1
	}
	logsDir := resolver.LogsDirectory()

	bootstrapLog(logsDir, "=== Surrealist starting ===")
	bootstrapLog(logsDir, fmt.Sprintf("OS: %s, Arch: %s", runtime.GOOS, runtime.GOARCH))

	if logger.IsDevBuild() {
		// Missing .env is normal outside a checkout.
		_ = godotenv.Load()
	}

	// Resource URLs and OS-injected switches share the command line with our
	// flags, so unknown arguments must not abort the launch.
	flags := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	settingsPath := flags.String("settings", "", "Path to host settings file")
	noWindow := flags.Bool("no-window", false, "Serve the front-end without opening a window")
	if err := flags.Parse(os.Args[1:]); err != nil {
		bootstrapLog(logsDir, fmt.Sprintf("Ignoring unparsed arguments: %v", err))
	}

	if *settingsPath == "" {
		*settingsPath = resolver.Settings()
		if _, err := config.WriteDefault(*settingsPath); err != nil {
			bootstrapLog(logsDir, fmt.Sprintf("Warning: failed to write default settings: %v", err))
		}
	}

	cfg, err := config.Load(*settingsPath)
	if err != nil {
		bootstrapLog(logsDir, fmt.Sprintf("FATAL: failed to load settings: %v", err))
		return 1
	}

	// Until the lock is ours another process may own surrealist.log, so the
	// claim and any hand-over log to stdout only.
	early := logger.New(loggerConfig(cfg, ""))

	guard, err := instance.Claim(resolver, early.Logger)
	if errors.Is(err, instance.ErrAlreadyRunning) {
		return forward(resolver, early)
	}
	if err != nil {
		early.Error().Err(err).Msg("failed to claim single instance")
		bootstrapLog(logsDir, fmt.Sprintf("FATAL: failed to claim single instance: %v", err))
		return 1
	}

	defer guard.Close()

	log := logger.New(loggerConfig(cfg, logsDir))
	defer log.Close()

	distFS, err := web.DistFS()
	if err != nil {
		log.Warn().Err(err).Msg("front-end bundle unavailable")
	}

	h, err := host.New(host.Options{
		Settings: cfg,
		Paths:    resolver,
		Logger:   log,
		Guard:    guard,
		Frontend: distFS,
		Headless: *noWindow,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build host")
		return 1
	}

	log.Info().
		Str("address", cfg.Server.Address()).
		Str("logs", logsDir).
		Msg("starting Surrealist")

	h.Setup(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := h.Run(ctx); err != nil {
		log.Error().Err(err).Msg("host exited with error")
		return 1
	}
	return 0
}

// loggerConfig builds the logger settings; an empty dir keeps output off disk.
func loggerConfig(cfg *config.Config, dir string) logger.Config {
	return logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
}

// forward hands this launch to the running instance.
func forward(resolver *paths.Resolver, log *logger.Logger) int {
	cwd, _ := os.Getwd()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := instance.Forward(ctx, resolver, os.Args, cwd, startup.DefaultRetryConfig(), log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("failed to reach running instance")
		return 1
	}
	log.Info().Msg("handed launch to running instance")
	return 0
}
