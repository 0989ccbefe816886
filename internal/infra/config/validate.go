package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
//
// A missing credential and a malformed endpoint are deliberately not checked
// here: both surface as typed errors on the first model call.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateLLM(cfg, ve)
	validateShell(cfg, ve)
	validateUI(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

var validProviders = map[string]bool{
	"responses": true,
	"fixture":   true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if !validProviders[cfg.LLM.Provider] {
		ve.Add("llm.provider %q is invalid (want: responses, fixture)", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		ve.Add("llm.model must not be empty")
	}
	if cfg.LLM.PersonaRole == "user" {
		ve.Add("llm.persona_role must differ from \"user\"")
	}
	if cfg.LLM.ConnTimeout < 0 {
		ve.Add("llm.conn_timeout must be >= 0")
	}
	if cfg.LLM.RespTimeout < 0 {
		ve.Add("llm.resp_timeout must be >= 0")
	}
	cb := cfg.LLM.CircuitBreaker
	if cb.Enabled {
		if cb.MaxFailures == 0 {
			ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
		}
		if cb.Timeout <= 0 {
			ve.Add("llm.circuit_breaker.timeout must be > 0 when enabled")
		}
	}
}

func validateShell(cfg *Config, ve *ValidationError) {
	if cfg.Shell.Path == "" {
		ve.Add("shell.path must not be empty")
	}
	if cfg.Shell.Timeout < 0 {
		ve.Add("shell.timeout must be >= 0")
	}
}

var validStyles = map[string]bool{
	"auto":  true,
	"dark":  true,
	"light": true,
	"notty": true,
	"ascii": true,
}

func validateUI(cfg *Config, ve *ValidationError) {
	if cfg.UI.Style != "" && !validStyles[cfg.UI.Style] {
		ve.Add("ui.style %q is invalid (want: auto, dark, light, notty, ascii)", cfg.UI.Style)
	}
}

var validLevels = map[string]bool{
	"":        true,
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is invalid (want: debug, info, warn, error)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	case "file":
		if cfg.Tracer.File == "" {
			ve.Add("tracer.file is required for the file exporter")
		}
	default:
		ve.Add("tracer.exporter %q is invalid (want: stdout, file, noop)", cfg.Tracer.Exporter)
	}
}
