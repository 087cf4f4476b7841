package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const defaultHistory = 1000

// EventLogEntry is the event type the webview console listens for.
const EventLogEntry = "logs:entry"

// Broadcaster delivers events to the webview.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// ConsoleEntry is one host log line as the webview prints it. Method names
// the console function the front-end calls for it.
type ConsoleEntry struct {
	Time      string         `json:"time"`
	Method    string         `json:"method"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Run       string         `json:"run,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// consoleMethod maps a zerolog level onto the browser console API.
func consoleMethod(level zerolog.Level) string {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return "debug"
	case zerolog.InfoLevel:
		return "info"
	case zerolog.WarnLevel:
		return "warn"
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return "error"
	default:
		return "log"
	}
}

// consoleWriter mirrors log entries to the webview console and keeps the
// most recent ones for a console that attaches late.
type consoleWriter struct {
	mu      sync.Mutex
	hub     Broadcaster
	history []ConsoleEntry
	limit   int
}

func newConsoleWriter(limit int) *consoleWriter {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &consoleWriter{limit: limit}
}

func (w *consoleWriter) setHub(hub Broadcaster) {
	w.mu.Lock()
	w.hub = hub
	w.mu.Unlock()
}

// Write handles entries that arrive without a level hint.
func (w *consoleWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter. Malformed entries are dropped.
func (w *consoleWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	entry, ok := parseConsoleEntry(level, p)
	if !ok {
		return len(p), nil
	}

	w.mu.Lock()
	w.history = append(w.history, entry)
	if len(w.history) > w.limit {
		w.history = w.history[len(w.history)-w.limit:]
	}
	hub := w.hub
	w.mu.Unlock()

	if hub != nil {
		_ = hub.Broadcast(EventLogEntry, entry)
	}
	return len(p), nil
}

func (w *consoleWriter) recent() []ConsoleEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ConsoleEntry, len(w.history))
	copy(out, w.history)
	return out
}

func parseConsoleEntry(level zerolog.Level, data []byte) (ConsoleEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ConsoleEntry{}, false
	}

	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}

	entry := ConsoleEntry{
		Time:      take(zerolog.TimestampFieldName),
		Level:     take(zerolog.LevelFieldName),
		Component: take("component"),
		Run:       take("run"),
		Message:   take(zerolog.MessageFieldName),
	}
	if level == zerolog.NoLevel && entry.Level != "" {
		if parsed, err := zerolog.ParseLevel(entry.Level); err == nil {
			level = parsed
		}
	}
	entry.Method = consoleMethod(level)
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}
