package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

// DefaultBackendURL is the build-time backend default. Override with
// -ldflags "-X github.com/synvya/merchant-connect/internal/config.DefaultBackendURL=...".
var DefaultBackendURL = "http://localhost:8000"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MERCHANT_CONNECT_"

// Config represents ~/.merchant-connect/config.yaml.
type Config struct {
	BackendURL     string        `yaml:"backend_url,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout,omitempty"`
	ProbeInterval  time.Duration `yaml:"probe_interval,omitempty"`
	ProbePaths     []string      `yaml:"probe_paths,omitempty"`
	SessionMaxAge  time.Duration `yaml:"session_max_age,omitempty"`
	CallbackPort   int           `yaml:"callback_port,omitempty"`
	TrustedOrigins []string      `yaml:"trusted_origins,omitempty"`
	HandleDomain   string        `yaml:"handle_domain,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
}

// Default returns a Config with every field populated.
func Default() Config {
	return Config{
		RequestTimeout: 15 * time.Second,
		ProbeTimeout:   5 * time.Second,
		ProbeInterval:  5 * time.Second,
		ProbePaths:     []string{"/"},
		SessionMaxAge:  24 * time.Hour,
		CallbackPort:   8765,
		TrustedOrigins: []string{"https://synvya.com", "https://retail-backend.synvya.com"},
		HandleDomain:   "synvya.com",
		LogLevel:       "warn",
	}
}

// Parse parses config.yaml bytes into a Config. Unset fields keep their defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Marshal serializes a Config to YAML bytes.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Load reads the optional .env file, then the optional config file, then
// applies environment overrides. Missing files are not an error.
func Load(configPath, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, err
		}
	case !os.IsNotExist(err):
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveBackendURL picks the backend base URL: explicit flag, persisted
// override, configured value, then the build-time default.
func (c Config) ResolveBackendURL(flag, override string) string {
	for _, u := range []string{flag, override, c.BackendURL, DefaultBackendURL} {
		if u = strings.TrimSpace(u); u != "" {
			return strings.TrimRight(u, "/")
		}
	}
	return ""
}

func applyEnv(cfg *Config) {
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ProbeTimeout = getEnvDuration("PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.ProbeInterval = getEnvDuration("PROBE_INTERVAL", cfg.ProbeInterval)
	cfg.ProbePaths = getEnvSlice("PROBE_PATHS", cfg.ProbePaths)
	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", cfg.SessionMaxAge)
	cfg.CallbackPort = getEnvInt("CALLBACK_PORT", cfg.CallbackPort)
	cfg.TrustedOrigins = getEnvSlice("TRUSTED_ORIGINS", cfg.TrustedOrigins)
	cfg.HandleDomain = getEnv("HANDLE_DOMAIN", cfg.HandleDomain)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || value == "" {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
