package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		env  map[string]string
		want Defaults
	}{
		{
			name: "explicit overrides",
			env: map[string]string{
				"SNAPSTORE_CONFIG_PATH": "/custom/config.toml",
				"SNAPSTORE_HOME":        "/custom/snapstore",
				"XDG_CONFIG_HOME":       "/xdg/config",
				"XDG_DATA_HOME":         "/xdg/data",
			},
			want: Defaults{
				ConfigPath: "/custom/config.toml",
				BaseDir:    "/custom/snapstore",
				LogDir:     "/custom/snapstore/log",
			},
		},
		{
			name: "XDG directories",
			env: map[string]string{
				"XDG_CONFIG_HOME": "/xdg/config",
				"XDG_DATA_HOME":   "/xdg/data",
			},
			want: Defaults{
				ConfigPath: "/xdg/config/snapstore.toml",
				BaseDir:    "/xdg/data/snapstore",
				LogDir:     "/xdg/data/snapstore/log",
			},
		},
		{
			name: "home directory fallback",
			want: Defaults{
				ConfigPath: filepath.Join(home, ".config", "snapstore.toml"),
				BaseDir:    filepath.Join(home, ".local", "share", "snapstore"),
				LogDir:     filepath.Join(home, ".local", "share", "snapstore", "log"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"SNAPSTORE_CONFIG_PATH", "SNAPSTORE_HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME"} {
				t.Setenv(key, tt.env[key])
			}

			got, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
