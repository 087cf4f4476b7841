package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/surrealist/surrealist/internal/config"
	"github.com/surrealist/surrealist/internal/logger"
)

func TestLoggerConfig_WithoutDirStaysOffDisk(t *testing.T) {
	cfg := config.Default()

	log := logger.New(loggerConfig(cfg, ""))
	defer log.Close()

	assert.Empty(t, log.GetLogFilePath())
}

func TestLoggerConfig_WithDirWritesLogFile(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()

	lc := loggerConfig(cfg, dir)
	assert.Equal(t, cfg.Logging.Level, lc.Level)
	assert.Equal(t, cfg.Logging.MaxSizeMB, lc.MaxSizeMB)

	log := logger.New(lc)
	defer log.Close()
	assert.Equal(t, filepath.Join(dir, logger.FileName), log.GetLogFilePath())
}
