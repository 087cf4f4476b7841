// Package instance keeps at most one host process per user profile and
// routes a second launch's arguments to the process that is already running.
package instance

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Time allowed for one forwarded payload to be read and acknowledged.
	connDeadline = 5 * time.Second

	// Largest forwarded payload accepted, in bytes.
	maxPayloadSize = 64 * 1024

	replyOK = "OK"
)

var (
	ErrAlreadyRunning = errors.New("another instance is already running")
	ErrInvalidToken   = errors.New("invalid instance token")
	ErrPayloadTooLong = errors.New("forwarded payload too large")
)

// PathResolver supplies the lock and endpoint file locations.
type PathResolver interface {
	InstanceLock() string
	InstanceAddress() string
}

// Payload is what a second launch hands to the running instance.
type Payload struct {
	Token string   `json:"token"`
	Args  []string `json:"args"`
	Cwd   string   `json:"cwd"`
}

// endpoint is the content of the address file.
type endpoint struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	PID     int    `json:"pid"`
}

// Handler receives forwarded launches. Calls are serialised.
type Handler func(p Payload)

// Holder is the process that owns the instance lock.
type Holder struct {
	lock     *os.File
	ln       net.Listener
	token    string
	addrPath string
	logger   zerolog.Logger

	handleMu  sync.Mutex
	closeOnce sync.Once
}

// Claim tries to become the single running instance. It returns
// ErrAlreadyRunning when another process holds the lock.
func Claim(paths PathResolver, logger zerolog.Logger) (*Holder, error) {
	lockPath := paths.InstanceLock()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("create instance directory: %w", err)
	}

	// #nosec G304 - path comes from the resolver
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open instance lock: %w", err)
	}

	if err := lockExclusive(f); err != nil {
		f.Close()
		if errors.Is(err, ErrAlreadyRunning) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("lock instance: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("listen for second instances: %w", err)
	}

	h := &Holder{
		lock:     f,
		ln:       ln,
		token:    uuid.NewString(),
		addrPath: paths.InstanceAddress(),
		logger:   logger.With().Str("component", "instance").Logger(),
	}

	if err := h.publish(); err != nil {
		h.Close()
		return nil, err
	}

	h.logger.Debug().Str("address", h.Addr()).Msg("instance lock claimed")
	return h, nil
}

// SetLogger replaces the logger used for forwarded launches. It must be
// called before Serve.
func (h *Holder) SetLogger(logger zerolog.Logger) {
	h.logger = logger.With().Str("component", "instance").Logger()
}

// Addr returns the IPC listener address.
func (h *Holder) Addr() string {
	return h.ln.Addr().String()
}

// Serve accepts forwarded launches until ctx is cancelled or Close is called.
func (h *Holder) Serve(ctx context.Context, fn Handler) error {
	go func() {
		<-ctx.Done()
		h.ln.Close()
	}()

	for {
		conn, err := h.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go h.handleConnection(conn, fn)
	}
}

// Close stops accepting launches, removes the endpoint file and releases the lock.
func (h *Holder) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.ln.Close()
		if rmErr := os.Remove(h.addrPath); rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
		// Closing the descriptor releases the lock.
		if closeErr := h.lock.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}

func (h *Holder) handleConnection(conn net.Conn, fn Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connDeadline))

	p, err := readPayload(conn)
	if err == nil && subtle.ConstantTimeCompare([]byte(p.Token), []byte(h.token)) != 1 {
		err = ErrInvalidToken
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("rejected forwarded launch")
		fmt.Fprintf(conn, "ERROR: %v\n", err)
		return
	}

	h.handleMu.Lock()
	fn(p)
	h.handleMu.Unlock()

	fmt.Fprint(conn, replyOK+"\n")
}

func (h *Holder) publish() error {
	data, err := json.Marshal(endpoint{
		Address: h.Addr(),
		Token:   h.token,
		PID:     os.Getpid(),
	})
	if err != nil {
		return fmt.Errorf("encode instance endpoint: %w", err)
	}

	tmp := h.addrPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write instance endpoint: %w", err)
	}
	if err := os.Rename(tmp, h.addrPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish instance endpoint: %w", err)
	}
	return nil
}

func readPayload(conn net.Conn) (Payload, error) {
	br := bufio.NewReaderSize(conn, 4096)

	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return Payload{}, err
		}
		line = append(line, chunk...)
		if len(line) > maxPayloadSize {
			return Payload{}, ErrPayloadTooLong
		}
		if !isPrefix {
			break
		}
	}

	var p Payload
	if err := json.Unmarshal(line, &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
