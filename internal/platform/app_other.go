//go:build !darwin && !windows

package platform

import (
	"os/exec"
	"sync"
)

// app has no native window; it hands the front-end to the default browser.
type app struct {
	config   AppConfig
	done     chan struct{}
	stopOnce sync.Once
}

func NewApp(cfg AppConfig) App {
	return &app{
		config: cfg,
		done:   make(chan struct{}),
	}
}

func (a *app) Run() error {
	if !a.config.Headless && a.config.ServerURL != "" {
		if err := a.OpenBrowser(a.config.ServerURL); err != nil {
			return err
		}
	}
	<-a.done
	return nil
}

func (a *app) ToggleDevtools() error {
	return ErrDevtoolsUnsupported
}

func (a *app) OpenBrowser(url string) error {
	return exec.Command("xdg-open", url).Start()
}

func (a *app) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		if a.config.OnQuit != nil {
			a.config.OnQuit()
		}
	})
}
