// Package inbox holds the resources (URLs) the current launch was asked to open.
package inbox

import (
	"net/url"
	"strings"
	"sync"
)

// Inbox is a process-wide, mutex-guarded list of resource URLs. Every intake
// replaces the contents; reading never clears them.
type Inbox struct {
	mu   sync.Mutex
	urls []string
}

// New creates an empty inbox.
func New() *Inbox {
	return &Inbox{}
}

// Replace overwrites the contents with urls. An empty list leaves any prior
// contents in place.
func (i *Inbox) Replace(urls []string) bool {
	if len(urls) == 0 {
		return false
	}
	i.Set(urls)
	return true
}

// Set overwrites the contents unconditionally.
func (i *Inbox) Set(urls []string) {
	next := make([]string, len(urls))
	copy(next, urls)

	i.mu.Lock()
	i.urls = next
	i.mu.Unlock()
}

// Snapshot returns the current contents in intake order.
func (i *Inbox) Snapshot() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]string, len(i.urls))
	copy(out, i.urls)
	return out
}

// ParseArgs returns the arguments after the program name that parse as
// absolute URLs, in their original order.
func ParseArgs(args []string) []string {
	if len(args) <= 1 {
		return nil
	}

	var urls []string
	for _, arg := range args[1:] {
		if u, ok := ParseURL(arg); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

// hostSchemes must carry a non-empty authority to be valid.
var hostSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// ParseURL reports whether candidate is a valid absolute URL. The candidate is
// returned exactly as given so the webview sees what the OS passed in.
func ParseURL(candidate string) (string, bool) {
	u, err := url.Parse(candidate)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	if hostSchemes[strings.ToLower(u.Scheme)] && u.Host == "" {
		return "", false
	}
	return candidate, true
}
