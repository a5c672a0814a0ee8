package paths

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the default state directory when set.
const HomeEnv = "MERCHANT_CONNECT_HOME"

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

// Dir returns ~/.merchant-connect, or $MERCHANT_CONNECT_HOME when set.
func Dir() string {
	if d := os.Getenv(HomeEnv); d != "" {
		return d
	}
	return filepath.Join(home(), ".merchant-connect")
}

// ConfigFile returns ~/.merchant-connect/config.yaml.
func ConfigFile() string {
	return filepath.Join(Dir(), "config.yaml")
}

// StateFile returns ~/.merchant-connect/state.yaml, which holds the session
// and the backend URL override.
func StateFile() string {
	return filepath.Join(Dir(), "state.yaml")
}

// EnvFile returns ~/.merchant-connect/.env.
func EnvFile() string {
	return filepath.Join(Dir(), ".env")
}
