package platform

import (
	"errors"
	"runtime"
)

// ErrDevtoolsUnsupported is returned by ToggleDevtools where the webview
// has no inspector the host can open.
var ErrDevtoolsUnsupported = errors.New("devtools are not supported on this platform")

// WindowOptions describes the main window.
type WindowOptions struct {
	Title     string
	Width     int
	Height    int
	MinWidth  int
	MinHeight int
	Center    bool
	// OverlayTitleBar draws the webview under a transparent title bar with
	// the title hidden. Only honoured on macOS.
	OverlayTitleBar bool
}

// DefaultWindow returns the main window layout.
func DefaultWindow() WindowOptions {
	return WindowOptions{
		Title:           "Surrealist",
		Width:           1235,
		Height:          675,
		MinWidth:        1235,
		MinHeight:       675,
		Center:          true,
		OverlayTitleBar: true,
	}
}

type AppConfig struct {
	ServerURL string
	Window    WindowOptions
	Devtools  bool
	// Headless skips the window and blocks until Stop.
	Headless bool
	// OnOpened receives URLs the OS asks the app to open while running.
	OnOpened func(urls []string)
	OnQuit   func()
}

type App interface {
	// Run blocks on the platform event loop. It must be called from the
	// main OS thread.
	Run() error
	OpenBrowser(url string) error
	ToggleDevtools() error
	Stop()
}

// ResourcesFromArgs reports whether resources reach a fresh launch through
// its command line. macOS delivers them as open events instead.
func ResourcesFromArgs() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "linux"
}
