// Package paths provides centralized path handling for rpmte.
// It implements XDG Base Directory specification compliance for the
// package database, the user configuration file and the log file.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for rpmte
	EnvDataDir = "RPMTE_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for rpmte
	EnvConfigDir = "RPMTE_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for rpmte
	EnvStateDir = "RPMTE_STATE_DIR"
)

// Default directories and files
const (
	// AppDirName is the directory name used under every XDG base directory
	AppDirName = "rpmte"

	// ConfigFileName is the user configuration file
	ConfigFileName = "config.toml"

	// DBFileName is the package database file
	DBFileName = "packages.db"

	// LogFileName is the name of the log file
	LogFileName = "rpmte.log"
)

// DataDir returns the directory holding the package database
func DataDir() string {
	return dirFromEnv(EnvDataDir, xdg.DataHome)
}

// ConfigDir returns the directory holding the user configuration
func ConfigDir() string {
	return dirFromEnv(EnvConfigDir, xdg.ConfigHome)
}

// StateDir returns the directory holding logs
func StateDir() string {
	return dirFromEnv(EnvStateDir, xdg.StateHome)
}

// DBPath returns the default package database location
func DBPath() string {
	return filepath.Join(DataDir(), DBFileName)
}

// ConfigFile returns the default user configuration file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// LogFile returns the log file location
func LogFile() string {
	return filepath.Join(StateDir(), LogFileName)
}

func dirFromEnv(env, base string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return filepath.Join(base, AppDirName)
}
