//go:build windows

package platform

import (
	"context"
	"os/exec"
	"sync"

	"github.com/tailscale/walk"
	"github.com/tailscale/win"
)

type windowsApp struct {
	config   AppConfig
	app      *walk.Application
	window   *walk.MainWindow
	running  bool
	mu       sync.Mutex
	stopOnce sync.Once
	done     chan struct{}
}

func NewApp(cfg AppConfig) App {
	return &windowsApp{
		config: cfg,
		done:   make(chan struct{}),
	}
}

func (a *windowsApp) Run() error {
	select {
	case <-a.done:
		return nil
	default:
	}

	if a.config.Headless {
		a.mu.Lock()
		a.running = true
		a.mu.Unlock()
		<-a.done
		return nil
	}

	app, err := walk.InitApp()
	if err != nil {
		return err
	}
	app.SetOrganizationName("SurrealDB")
	app.SetProductName("Surrealist")

	mw, err := walk.NewMainWindow()
	if err != nil {
		return err
	}
	a.window = mw

	opts := a.config.Window
	if err := mw.SetTitle(opts.Title); err != nil {
		return err
	}
	if err := mw.SetLayout(walk.NewVBoxLayout()); err != nil {
		return err
	}
	if err := mw.SetMinMaxSize(walk.Size{Width: opts.MinWidth, Height: opts.MinHeight}, walk.Size{}); err != nil {
		return err
	}
	if err := mw.SetBounds(a.bounds(opts)); err != nil {
		return err
	}

	wv, err := walk.NewWebView(mw)
	if err != nil {
		return err
	}
	if err := wv.SetURL(a.config.ServerURL); err != nil {
		return err
	}

	mw.Closing().Attach(func(canceled *bool, reason walk.CloseReason) {
		app.Exit(0)
	})

	a.mu.Lock()
	a.app = app
	a.running = true
	a.mu.Unlock()

	mw.Show()
	app.Run()

	a.quit()
	return nil
}

// bounds places the window in the middle of the primary screen when asked to.
func (a *windowsApp) bounds(opts WindowOptions) walk.Rectangle {
	r := walk.Rectangle{Width: opts.Width, Height: opts.Height}
	if !opts.Center {
		return r
	}
	screenW := int(win.GetSystemMetrics(win.SM_CXSCREEN))
	screenH := int(win.GetSystemMetrics(win.SM_CYSCREEN))
	r.X = max(0, (screenW-opts.Width)/2)
	r.Y = max(0, (screenH-opts.Height)/2)
	return r
}

// ToggleDevtools is unsupported: the embedded browser control has no
// inspector.
func (a *windowsApp) ToggleDevtools() error {
	return ErrDevtoolsUnsupported
}

func (a *windowsApp) OpenBrowser(url string) error {
	cmd := exec.CommandContext(context.Background(), "cmd", "/c", "start", "", url)
	return cmd.Start()
}

func (a *windowsApp) Stop() {
	a.mu.Lock()
	wasRunning := a.running
	mw := a.window
	app := a.app
	a.mu.Unlock()

	if wasRunning && mw != nil && app != nil {
		mw.Synchronize(func() {
			app.Exit(0)
		})
		return
	}
	a.quit()
}

func (a *windowsApp) quit() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		close(a.done)

		if a.config.OnQuit != nil {
			a.config.OnQuit()
		}
	})
}
