package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "./shellmate.yaml"

// Config is the top-level application configuration.
type Config struct {
	Includes []string `yaml:"includes,omitempty"`

	LLM    LLMConfig    `yaml:"llm"`
	Prompt PromptConfig `yaml:"prompt"`
	Shell  ShellConfig  `yaml:"shell"`
	UI     UIConfig     `yaml:"ui"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// LLMConfig holds model backend settings.
type LLMConfig struct {
	Provider       string               `yaml:"provider"` // "responses" or "fixture"
	Endpoint       string               `yaml:"endpoint"`
	Model          string               `yaml:"model"`
	APIKey         string               `yaml:"api_key,omitempty"`
	APIKeyEnv      string               `yaml:"api_key_env"`
	PersonaRole    string               `yaml:"persona_role"`
	ConnTimeout    time.Duration        `yaml:"conn_timeout"`
	RespTimeout    time.Duration        `yaml:"resp_timeout"`
	Pool           PoolConfig           `yaml:"pool"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	FixtureFile    string               `yaml:"fixture_file,omitempty"`
}

// CircuitBreakerConfig holds circuit breaker settings for the model backend.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// PromptConfig overrides the built-in persona and instruction block.
// Empty values keep the defaults.
type PromptConfig struct {
	Persona      string `yaml:"persona,omitempty"`
	Instructions string `yaml:"instructions,omitempty"`
}

// ShellConfig holds command execution settings.
type ShellConfig struct {
	Path    string        `yaml:"path"`
	WorkDir string        `yaml:"workdir,omitempty"`
	Timeout time.Duration `yaml:"timeout"` // 0 = wait for the command indefinitely
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Style     string `yaml:"style"` // glamour style: "auto", "dark", "light", "notty"
	AltScreen bool   `yaml:"alt_screen"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`       // "stdout", "file" or "noop"
	File     string `yaml:"file,omitempty"` // span output for the file exporter
}

// defaultDataDir returns $HOME/.shellmate, falling back to "./.shellmate".
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.shellmate"
	}
	return filepath.Join(home, ".shellmate")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "responses",
			Endpoint:    "https://api.openai.com/v1/responses",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			PersonaRole: "developer",
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     false,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Shell: ShellConfig{
			Path: "/bin/sh",
		},
		UI: UIConfig{
			Style: "auto",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: filepath.Join(defaultDataDir(), "shellmate.log"),
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, resolves the
// credential and decrypts secrets. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		if err := validatePermissions(absPath); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Includes) > 0 {
			seen := map[string]bool{absPath: true}
			if err := mergeIncludes(cfg, filepath.Dir(absPath), seen, 0); err != nil {
				return nil, err
			}
		}
	}

	ApplyEnvOverrides(cfg)
	ResolveCredential(cfg)

	if err := openSecrets(cfg, os.Getenv(PassphraseEnv)); err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps SHELLMATE_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHELLMATE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("SHELLMATE_LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("SHELLMATE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SHELLMATE_LLM_API_KEY_ENV"); v != "" {
		cfg.LLM.APIKeyEnv = v
	}
	if v := os.Getenv("SHELLMATE_LLM_FIXTURE_FILE"); v != "" {
		cfg.LLM.FixtureFile = v
	}
	if v := os.Getenv("SHELLMATE_LLM_CIRCUIT_BREAKER_ENABLED"); v == "true" {
		cfg.LLM.CircuitBreaker.Enabled = true
	}
	if v := os.Getenv("SHELLMATE_SHELL_PATH"); v != "" {
		cfg.Shell.Path = v
	}
	if v := os.Getenv("SHELLMATE_SHELL_WORKDIR"); v != "" {
		cfg.Shell.WorkDir = v
	}
	if v := os.Getenv("SHELLMATE_SHELL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Shell.Timeout = d
		}
	}
	if v := os.Getenv("SHELLMATE_UI_STYLE"); v != "" {
		cfg.UI.Style = v
	}
	if v := os.Getenv("SHELLMATE_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SHELLMATE_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("SHELLMATE_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SHELLMATE_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("SHELLMATE_TRACER_FILE"); v != "" {
		cfg.Tracer.File = v
	}
}

// ResolveCredential reads the credential from the environment variable named
// by LLM.APIKeyEnv. A non-empty env value wins over the file value.
func ResolveCredential(cfg *Config) {
	if cfg.LLM.APIKeyEnv == "" {
		return
	}
	if v := strings.TrimSpace(os.Getenv(cfg.LLM.APIKeyEnv)); v != "" {
		cfg.LLM.APIKey = v
	}
}

// validatePermissions rejects config files writable by group or others.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
