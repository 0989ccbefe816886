package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shellmate/internal/adapter/llm"
	"shellmate/internal/adapter/shell"
	"shellmate/internal/infra/config"
	"shellmate/internal/infra/logger"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// runDoctor executes all health checks and reports results.
func runDoctor(args []string) error {
	flags := parseFlags(args)
	cfgPath := configPath(flags)

	// Some checks work without a loaded config.
	cfg, cfgErr := loadConfig(flags)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Backend", Fn: checkBackend},
		{Name: "Credential", Fn: checkCredential},
		{Name: "Endpoint", Fn: checkEndpoint},
		{Name: "Endpoint reachable", Fn: checkConnectivity},
		{Name: "Shell", Fn: checkShell},
		{Name: "Log output", Fn: checkLogOutput},
	}
	return reportChecks(os.Stdout, cfg, checks)
}

// reportChecks runs checks against cfg and prints a summary. It fails when
// any check fails.
func reportChecks(out io.Writer, cfg *config.Config, checks []Check) error {
	fmt.Fprintln(out, "shellmate doctor")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name

		fmt.Fprintf(out, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(out, "      Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Fprintln(out, "\nFix the FAIL issues above before running shellmate.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Fprintln(out, "\nshellmate should work, but consider addressing the warnings.")
	} else {
		fmt.Fprintln(out, "\nAll checks passed! shellmate is ready to run.")
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

var notLoaded = CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}

// checkConfigFile reports on the config file. A missing file is allowed.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     "Check shellmate.yaml syntax and permissions (not group/world writable)",
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using defaults", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkBackend builds the generator registry and reports which backend the
// config selects among the registered ones.
func checkBackend(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	comp, err := initLLM(cfg, logger.Discard())
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     "Set llm.provider (or --provider) to a registered backend",
		}
	}
	msg := fmt.Sprintf("%s selected (available: %s)",
		comp.Generator.Name(), strings.Join(comp.Registry.List(), ", "))
	if cfg.LLM.CircuitBreaker.Enabled && !usesFixture(cfg) {
		msg += ", circuit breaker on"
	}
	return CheckResult{Status: StatusPass, Message: msg}
}

func usesFixture(cfg *config.Config) bool {
	return cfg.LLM.Provider == "fixture"
}

// checkCredential verifies a credential was resolved for the backend.
func checkCredential(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	if usesFixture(cfg) {
		return CheckResult{Status: StatusPass, Message: "fixture backend needs no credential"}
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("no credential found in $%s or llm.api_key", cfg.LLM.APIKeyEnv),
			Fix:     fmt.Sprintf("export %s=sk-...", cfg.LLM.APIKeyEnv),
		}
	}
	return CheckResult{Status: StatusPass, Message: "credential configured"}
}

// checkEndpoint verifies the endpoint is an absolute http(s) URL.
func checkEndpoint(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	if usesFixture(cfg) {
		return CheckResult{Status: StatusPass, Message: "fixture backend has no endpoint"}
	}
	u, err := llm.ParseEndpoint(cfg.LLM.Endpoint)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("invalid endpoint: %v", err),
			Fix:     "Set llm.endpoint to an http(s) URL, e.g. https://api.openai.com/v1/responses",
		}
	}
	if u.Scheme == "http" {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s uses plain http; the credential is sent unencrypted", u.Host),
		}
	}
	return CheckResult{Status: StatusPass, Message: u.Host}
}

// checkConnectivity sends a GET to the endpoint. Any HTTP response counts as
// reachable.
func checkConnectivity(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	if usesFixture(cfg) {
		return CheckResult{Status: StatusPass, Message: "skipped for fixture backend"}
	}
	if r := checkEndpoint(cfg); r.Status == StatusFail {
		return CheckResult{Status: StatusWarn, Message: "skipped, endpoint invalid"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.LLM.Endpoint, nil)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	start := time.Now()
	resp, err := llm.NewHTTPClient(cfg.LLM).Do(req)
	latency := time.Since(start)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot reach %s: %v", req.URL.Host, err),
			Fix:     "Check your internet connection, proxy and firewall settings",
		}
	}
	resp.Body.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s reachable (latency: %dms)", req.URL.Host, latency.Milliseconds()),
	}
}

// checkShell runs a trivial command through the configured shell.
func checkShell(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	exec := shell.NewLocalExecutor(nil,
		shell.WithShell(cfg.Shell.Path),
		shell.WithWorkDir(cfg.Shell.WorkDir),
		shell.WithTimeout(5*time.Second),
	)
	res := exec.Execute(context.Background(), "echo ok")
	if res.HasError() {
		return CheckResult{
			Status:  StatusFail,
			Message: *res.Error,
			Fix:     "Set shell.path to a POSIX shell and shell.workdir to an existing directory",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s works (%dms)", exec.Shell(), res.Duration.Milliseconds()),
	}
}

// checkLogOutput verifies the log file directory is writable.
func checkLogOutput(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded
	}
	switch strings.ToLower(cfg.Logger.Output) {
	case "stdout":
		return CheckResult{Status: StatusPass, Message: "logging to stdout"}
	case "stderr", "":
		return CheckResult{Status: StatusPass, Message: "logging to stderr"}
	}

	dir := filepath.Dir(cfg.Logger.Output)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
			Fix:     "Set logger.output to a writable path, or to stderr",
		}
	}
	tmp, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is not writable: %v", dir, err),
			Fix:     "Set logger.output to a writable path, or to stderr",
		}
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return CheckResult{Status: StatusPass, Message: "logging to " + cfg.Logger.Output}
}
