package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Defaults are the paths used when no config file says otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves default paths, checking environment variables first.
// Environment variables:
//   - SNAPSTORE_CONFIG_PATH: config file location (default: $XDG_CONFIG_HOME/snapstore.toml)
//   - SNAPSTORE_HOME: base directory for snapstore data (default: $XDG_DATA_HOME/snapstore)
func GetDefaults() (Defaults, error) {
	// xdg caches the environment at init; tests and long-lived callers change it.
	xdg.Reload()

	configPath, err := getConfigPath()
	if err != nil {
		return Defaults{}, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return Defaults{}, err
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SNAPSTORE_CONFIG_PATH first,
// then the XDG config home, then ~/.config.
func getConfigPath() (string, error) {
	if path := os.Getenv("SNAPSTORE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	configHome := xdg.ConfigHome
	if configHome == "" {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "snapstore.toml"), nil
}

// getBaseDir returns the base directory for snapstore data, checking SNAPSTORE_HOME first,
// then the XDG data home, then ~/.local/share.
func getBaseDir() (string, error) {
	if path := os.Getenv("SNAPSTORE_HOME"); path != "" {
		return path, nil
	}

	dataHome := xdg.DataHome
	if dataHome == "" {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "snapstore"), nil
}

func homeDir() (string, error) {
	if xdg.Home != "" {
		return xdg.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return home, nil
}
