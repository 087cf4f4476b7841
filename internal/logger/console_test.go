package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleMethod(t *testing.T) {
	tests := []struct {
		level zerolog.Level
		want  string
	}{
		{zerolog.TraceLevel, "debug"},
		{zerolog.DebugLevel, "debug"},
		{zerolog.InfoLevel, "info"},
		{zerolog.WarnLevel, "warn"},
		{zerolog.ErrorLevel, "error"},
		{zerolog.FatalLevel, "error"},
		{zerolog.PanicLevel, "error"},
		{zerolog.NoLevel, "log"},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, consoleMethod(tt.level))
		})
	}
}

func TestConsoleWriter_LiftsRunAndComponent(t *testing.T) {
	w := newConsoleWriter(10)
	log := zerolog.New(w).With().Timestamp().Logger()

	log.Trace().Str("component", "database").Str("run", "r-1").Int("pid", 42).Msg("listening")

	recent := w.recent()
	require.Len(t, recent, 1)
	e := recent[0]
	assert.Equal(t, "debug", e.Method)
	assert.Equal(t, "trace", e.Level)
	assert.Equal(t, "database", e.Component)
	assert.Equal(t, "r-1", e.Run)
	assert.Equal(t, "listening", e.Message)
	assert.NotEmpty(t, e.Time)
	assert.Equal(t, map[string]any{"pid": float64(42)}, e.Fields)
}

func TestConsoleWriter_PlainWriteUsesLevelField(t *testing.T) {
	w := newConsoleWriter(10)

	_, err := w.Write([]byte(`{"level":"warn","message":"slow start"}`))
	require.NoError(t, err)

	recent := w.recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "warn", recent[0].Method)
	assert.Nil(t, recent[0].Fields)
}

func TestConsoleWriter_DropsMalformedEntries(t *testing.T) {
	w := newConsoleWriter(10)
	hub := &recordingHub{}
	w.setHub(hub)

	n, err := w.Write([]byte("not json"))
	assert.NoError(t, err)
	assert.Equal(t, len("not json"), n)
	assert.Empty(t, w.recent())
	assert.Empty(t, hub.all())
}

func TestConsoleWriter_HistoryIsBounded(t *testing.T) {
	w := newConsoleWriter(3)
	log := zerolog.New(w)

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		log.Info().Msg(msg)
	}

	recent := w.recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Message)
	assert.Equal(t, "e", recent[2].Message)

	recent[0].Message = "mutated"
	assert.Equal(t, "c", w.recent()[0].Message)
}

func TestConsoleWriter_DefaultLimit(t *testing.T) {
	assert.Equal(t, defaultHistory, newConsoleWriter(0).limit)
}
