//go:build darwin

package platform

import (
	"os/exec"
	"sync"

	"github.com/progrium/darwinkit/dispatch"
	"github.com/progrium/darwinkit/macos/appkit"
	"github.com/progrium/darwinkit/macos/foundation"
	"github.com/progrium/darwinkit/macos/webkit"
	"github.com/progrium/darwinkit/objc"
)

type macApp struct {
	config   AppConfig
	delegate *appkit.ApplicationDelegate
	window   appkit.Window
	webview  webkit.WebView
	devtools bool
	running  bool
	mu       sync.Mutex
	stopOnce sync.Once
	done     chan struct{}
}

func NewApp(cfg AppConfig) App {
	return &macApp{
		config:   cfg,
		devtools: cfg.Devtools,
		done:     make(chan struct{}),
	}
}

func (a *macApp) Run() error {
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

	objc.WithAutoreleasePool(func() {
		app := appkit.Application_SharedApplication()
		app.SetActivationPolicy(appkit.ApplicationActivationPolicyRegular)

		a.delegate = &appkit.ApplicationDelegate{}
		a.delegate.SetApplicationOpenURLs(func(_ appkit.Application, urls []foundation.URL) {
			if a.config.OnOpened == nil {
				return
			}
			opened := make([]string, 0, len(urls))
			for _, u := range urls {
				opened = append(opened, u.AbsoluteString())
			}
			a.config.OnOpened(opened)
		})
		a.delegate.SetApplicationShouldTerminateAfterLastWindowClosed(func(appkit.Application) bool {
			return true
		})
		a.delegate.SetApplicationWillTerminate(func(foundation.Notification) {
			a.quit()
		})
		app.SetDelegate(a.delegate)

		a.window = a.buildWindow()
		objc.Retain(&a.window)
		a.window.MakeKeyAndOrderFront(nil)

		a.mu.Lock()
		a.running = true
		a.mu.Unlock()

		app.ActivateIgnoringOtherApps(true)
		app.Run()
	})

	return nil
}

func (a *macApp) buildWindow() appkit.Window {
	opts := a.config.Window
	frame := foundation.Rect{Size: foundation.Size{Width: float64(opts.Width), Height: float64(opts.Height)}}

	style := appkit.WindowStyleMaskTitled | appkit.WindowStyleMaskClosable |
		appkit.WindowStyleMaskMiniaturizable | appkit.WindowStyleMaskResizable
	if opts.OverlayTitleBar {
		style |= appkit.WindowStyleMaskFullSizeContentView
	}

	w := appkit.NewWindowWithContentRectStyleMaskBackingDefer(frame, style, appkit.BackingStoreBuffered, false)
	w.SetTitle(opts.Title)
	w.SetContentMinSize(foundation.Size{Width: float64(opts.MinWidth), Height: float64(opts.MinHeight)})
	if opts.OverlayTitleBar {
		w.SetTitlebarAppearsTransparent(true)
		w.SetTitleVisibility(appkit.WindowTitleHidden)
	}

	config := webkit.NewWebViewConfiguration()
	a.webview = webkit.NewWebViewWithFrameConfiguration(frame, config)
	objc.Retain(&a.webview)
	a.webview.SetInspectable(a.devtools)
	a.webview.LoadRequest(foundation.NewURLRequestWithURL(foundation.URL_URLWithString(a.config.ServerURL)))

	w.SetContentView(a.webview)
	if opts.Center {
		w.Center()
	}
	return w
}

// ToggleDevtools flips whether the web inspector can attach to the webview.
func (a *macApp) ToggleDevtools() error {
	a.mu.Lock()
	a.devtools = !a.devtools
	enabled := a.devtools
	running := a.running && !a.config.Headless
	a.mu.Unlock()

	if running {
		dispatch.MainQueue().DispatchAsync(func() {
			a.webview.SetInspectable(enabled)
		})
	}
	return nil
}

func (a *macApp) OpenBrowser(url string) error {
	nsURL := foundation.URL_URLWithString(url)
	if nsURL.Ptr == nil {
		return exec.Command("open", url).Start()
	}
	appkit.Workspace_SharedWorkspace().OpenURL(nsURL)
	return nil
}

func (a *macApp) Stop() {
	a.mu.Lock()
	wasRunning := a.running
	headless := a.config.Headless
	a.mu.Unlock()

	if wasRunning && !headless {
		dispatch.MainQueue().DispatchAsync(func() {
			appkit.Application_SharedApplication().Terminate(nil)
		})
		return
	}
	a.quit()
}

func (a *macApp) quit() {
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
