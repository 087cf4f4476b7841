// Package surreal supervises the local database child process the webview
// can start and stop.
package surreal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types broadcast while a database runs.
const (
	EventStart  = "database:start"
	EventStop   = "database:stop"
	EventOutput = "database:output"
	EventError  = "database:error"
)

// DriverMemory keeps all data in memory; every other driver takes a storage path.
const DriverMemory = "memory"

// Broadcaster delivers events to the webview.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// StartOptions describes one database launch.
type StartOptions struct {
	Username   string
	Password   string
	Port       int
	Driver     string
	Storage    string
	Executable string
}

// Args returns the arguments passed to the database executable.
func (o StartOptions) Args() []string {
	args := []string{
		"start",
		"--bind", fmt.Sprintf("0.0.0.0:%d", o.Port),
		"--user", o.Username,
		"--pass", o.Password,
	}
	if o.Driver == DriverMemory {
		return append(args, DriverMemory)
	}
	return append(args, fmt.Sprintf("%s://%s", o.Driver, o.Storage))
}

type child struct {
	id      string
	process *os.Process
}

// Supervisor owns at most one running database process.
type Supervisor struct {
	executable string
	hub        Broadcaster
	logger     zerolog.Logger

	mu      sync.Mutex
	current *child
	running sync.WaitGroup
}

// NewSupervisor creates a supervisor that falls back to executable when a
// launch does not name one.
func NewSupervisor(executable string, hub Broadcaster, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		executable: executable,
		hub:        hub,
		logger:     logger.With().Str("component", "database").Logger(),
	}
}

// Running reports whether a database process is held.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Start launches the database. It is a no-op while one is already running.
func (s *Supervisor) Start(opts StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.logger.Debug().Int("pid", s.current.process.Pid).Msg("database already running")
		return nil
	}

	executable := opts.Executable
	if executable == "" {
		executable = s.executable
	}

	argv := buildCommand(append([]string{executable}, opts.Args()...))
	cmd := exec.Command(argv[0], argv[1:]...)
	configureCommand(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to capture database output: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to capture database output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.emit(EventError, err.Error())
		return fmt.Errorf("failed to start database: %w", err)
	}

	c := &child{id: uuid.NewString(), process: cmd.Process}
	s.current = c

	s.logger.Info().
		Str("run", c.id).
		Int("pid", cmd.Process.Pid).
		Str("driver", opts.Driver).
		Int("port", opts.Port).
		Msg("database started")
	s.emit(EventStart, nil)

	s.running.Add(1)
	go s.supervise(c, cmd, stdout, stderr)
	return nil
}

func (s *Supervisor) supervise(c *child, cmd *exec.Cmd, stdout, stderr io.Reader) {
	defer s.running.Done()

	var wg sync.WaitGroup
	wg.Add(2)
	go s.stream(c, stdout, &wg)
	go s.stream(c, stderr, &wg)
	wg.Wait()

	err := cmd.Wait()

	s.mu.Lock()
	stopped := s.current != c
	if !stopped {
		s.current = nil
	}
	s.mu.Unlock()

	log := s.logger.With().Str("run", c.id).Logger()
	var exitErr *exec.ExitError
	switch {
	case err == nil || stopped:
		log.Info().Msg("database stopped")
	case errors.As(err, &exitErr):
		log.Warn().Int("code", exitErr.ExitCode()).Msg("database exited")
		s.emit(EventError, fmt.Sprintf("database exited with code %d", exitErr.ExitCode()))
	default:
		log.Error().Err(err).Msg("database failed")
		s.emit(EventError, err.Error())
	}
	s.emit(EventStop, nil)
}

func (s *Supervisor) stream(c *child, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s.logger.Trace().Str("run", c.id).Msg(line)
		s.emit(EventOutput, line)
	}
}

// Stop kills the running database. It reports whether there was one.
func (s *Supervisor) Stop() bool {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()

	if c == nil {
		return false
	}

	if err := killProcess(c.process); err != nil {
		s.logger.Warn().Err(err).Str("run", c.id).Int("pid", c.process.Pid).Msg("failed to kill database")
	}
	return true
}

// Kill takes the held process, if any, and kills it by PID. Failures are
// logged and otherwise ignored; it is meant for host exit.
func (s *Supervisor) Kill() {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	s.logger.Info().Int("pid", c.process.Pid).Msg("killing database on exit")
	if err := killProcess(c.process); err != nil {
		s.logger.Warn().Err(err).Int("pid", c.process.Pid).Msg("failed to kill database")
	}
}

// Wait blocks until every started process has been reaped and its stop event
// sent, or until ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) emit(msgType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", msgType).Msg("failed to broadcast")
	}
}
