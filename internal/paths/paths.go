// Package paths resolves the canonical filesystem locations used by the host.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDirName    = "surrealist"
	appTitle      = "Surrealist"
	configFile    = "config.json"
	legacyFile    = "surrealist.json"
	legacyBackup  = "surrealist.json.bak"
	lockFile      = "instance.lock"
	addressFile   = "instance.json"
	settingsFile  = "settings.yaml"
	logsDirectory = "logs"
)

// Resolver derives every host path from two base directories: the
// platform's per-user configuration directory and the log directory.
type Resolver struct {
	configRoot string
	logsDir    string
}

// New resolves the base directories from the current user environment.
func New() (*Resolver, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}

	return &Resolver{
		configRoot: configRoot,
		logsDir:    platformLogsDir(configRoot),
	}, nil
}

// NewWithRoot places everything under root. Used for portable installs and tests.
func NewWithRoot(root string) *Resolver {
	return &Resolver{
		configRoot: root,
		logsDir:    filepath.Join(root, appDirName, logsDirectory),
	}
}

// DataDirectory is the application's own directory inside the config root.
func (r *Resolver) DataDirectory() string {
	return filepath.Join(r.configRoot, appDirName)
}

// Config returns the path of the front-end configuration file.
func (r *Resolver) Config() string {
	return filepath.Join(r.DataDirectory(), configFile)
}

// LegacyConfig returns the path used by releases that predate the data directory.
func (r *Resolver) LegacyConfig() string {
	return filepath.Join(r.configRoot, legacyFile)
}

// LegacyConfigBackup is where the legacy file is moved once migrated.
func (r *Resolver) LegacyConfigBackup() string {
	return filepath.Join(r.configRoot, legacyBackup)
}

// LogsDirectory returns the directory holding the rotating log file.
func (r *Resolver) LogsDirectory() string {
	return r.logsDir
}

// InstanceLock is the user-scoped lock file held by the running host.
func (r *Resolver) InstanceLock() string {
	return filepath.Join(r.DataDirectory(), lockFile)
}

// InstanceAddress is where the running host publishes its IPC endpoint.
func (r *Resolver) InstanceAddress() string {
	return filepath.Join(r.DataDirectory(), addressFile)
}

// Settings returns the default location of the host settings file.
func (r *Resolver) Settings() string {
	return filepath.Join(r.DataDirectory(), settingsFile)
}

func platformLogsDir(configRoot string) string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appTitle, logsDirectory)
		}
	case "darwin":
		if home, _ := os.UserHomeDir(); home != "" {
			return filepath.Join(home, "Library", "Logs", appTitle)
		}
	}
	return filepath.Join(configRoot, appDirName, logsDirectory)
}
