package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu      sync.Mutex
	entries []ConsoleEntry
}

func (h *recordingHub) Broadcast(msgType string, payload interface{}) error {
	if msgType != EventLogEntry {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, payload.(ConsoleEntry))
	return nil
}

func (h *recordingHub) all() []ConsoleEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ConsoleEntry(nil), h.entries...)
}

func TestNew_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Level: "info", Format: "json", Path: dir})
	defer log.Close()

	log.Info().Msg("host started")

	assert.Equal(t, filepath.Join(dir, FileName), log.GetLogFilePath())
	data, err := os.ReadFile(log.GetLogFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "host started")
}

func TestNew_WithoutPathSkipsFile(t *testing.T) {
	log := New(Config{Level: "info", Format: "json"})
	assert.Empty(t, log.GetLogFilePath())
	assert.NoError(t, log.Rotate())
	assert.NoError(t, log.Close())
}

func TestLogger_StreamsToHub(t *testing.T) {
	log := New(Config{Level: "info", Format: "json"})
	hub := &recordingHub{}
	log.SetBroadcastHub(hub)

	component := log.WithComponent("inbox")
	component.Info().Str("url", "surrealist://x").Msg("resource received")

	entries := hub.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "info", entries[0].Method)
	assert.Equal(t, "inbox", entries[0].Component)
	assert.Equal(t, "resource received", entries[0].Message)
	assert.Equal(t, "surrealist://x", entries[0].Fields["url"])
}

func TestLogger_BuffersRecentEntries(t *testing.T) {
	log := New(Config{Level: "info", Format: "json", BufferSize: 2})

	log.Info().Msg("one")
	log.Info().Msg("two")
	log.Info().Msg("three")

	recent := log.GetRecentLogs()
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Message)
	assert.Equal(t, "three", recent[1].Message)
}

func TestLogger_Rotate(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Level: "info", Format: "json", Path: dir})
	defer log.Close()

	log.Info().Msg("before rotation")
	require.NoError(t, log.Rotate())
	log.Info().Msg("after rotation")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "trace", parseLevel("trace").String())
	assert.Equal(t, "info", parseLevel("nonsense").String())
}

func TestLogger_ErrorsMapToConsoleError(t *testing.T) {
	log := New(Config{Level: "info", Format: "console"})
	hub := &recordingHub{}
	log.SetBroadcastHub(hub)

	component := log.WithComponent("database")
	component.Error().Str("run", "r-2").Msg("database failed")

	entries := hub.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Method)
	assert.Equal(t, "r-2", entries[0].Run)
	assert.Equal(t, "database", entries[0].Component)
}
