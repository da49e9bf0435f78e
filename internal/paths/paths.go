// Package paths resolves the settee configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "settee"

	// DefaultDataDirName is the CWD-relative data directory used when
	// nothing else is configured.
	DefaultDataDirName = ".settee"

	// ConfigFileName is the configuration file inside the config directory.
	ConfigFileName = "config.yaml"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SETTEE_CONFIG_DIR"
	EnvDataDir   = "SETTEE_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgVar/settee on Linux, falling back to ~/<fallback...>/settee.
// Other platforms use os.UserConfigDir.
func xdgDir(xdgVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/settee (fallback ~/.config/settee)
// macOS:   ~/Library/Application Support/settee
// Windows: %APPDATA%/settee
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// PlatformDataDir returns the platform-specific data directory. It is not
// the default; see ResolveDataDir.
//
// Linux:   $XDG_DATA_HOME/settee (fallback ~/.local/share/settee)
// macOS and Windows: same as the config dir.
func PlatformDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > SETTEE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > SETTEE_DATA_DIR env > configValue > $(CWD)/.settee.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, os.Getenv(EnvDataDir), configValue} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the path of the configuration file in configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
