package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"shellmate/internal/domain"
	"shellmate/internal/infra/logger"
	"shellmate/internal/infra/tracer"
)

// DefaultShell is used when no shell path is configured.
const DefaultShell = "/bin/sh"

// LocalExecutor runs command lines through "<shell> -c" on the local system.
// The command string is handed to the shell unmodified.
type LocalExecutor struct {
	shell   string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a LocalExecutor.
type Option func(*LocalExecutor)

// WithShell sets the shell binary. Empty keeps DefaultShell.
func WithShell(path string) Option {
	return func(e *LocalExecutor) {
		if path != "" {
			e.shell = path
		}
	}
}

// WithWorkDir sets the working directory. Empty inherits the process's.
func WithWorkDir(dir string) Option {
	return func(e *LocalExecutor) { e.workDir = dir }
}

// WithTimeout kills commands running longer than d. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(e *LocalExecutor) { e.timeout = d }
}

// NewLocalExecutor creates an executor. A nil logger discards output.
func NewLocalExecutor(log *slog.Logger, opts ...Option) *LocalExecutor {
	if log == nil {
		log = logger.Discard()
	}
	e := &LocalExecutor{shell: DefaultShell, logger: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shell returns the configured shell path.
func (e *LocalExecutor) Shell() string { return e.shell }

// Execute implements domain.CommandExecutor. It blocks until the child exits.
// ctx carries the trace span only; cancelling it does not stop the command.
func (e *LocalExecutor) Execute(ctx context.Context, command string) domain.ExecutionResult {
	_, span := tracer.StartSpan(ctx, "shell.execute",
		trace.WithAttributes(tracer.StringAttr("shell.path", e.shell)),
	)
	defer span.End()

	res := e.run(command)

	span.SetAttributes(
		tracer.IntAttr("shell.exit_code", res.ExitCode),
		tracer.BoolAttr("shell.launched", res.Launched),
		tracer.DurationAttr("shell.duration_ms", res.Duration),
	)
	var spanErr error
	if res.HasError() {
		spanErr = errors.New(*res.Error)
	}
	tracer.SetResult(span, spanErr)

	e.logger.Debug("shell command finished",
		"shell", e.shell,
		"exit_code", res.ExitCode,
		"launched", res.Launched,
		"duration", res.Duration,
	)
	return res
}

func (e *LocalExecutor) run(command string) domain.ExecutionResult {
	runCtx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.shell, "-c", command)
	cmd.Dir = e.workDir
	if e.timeout > 0 {
		// Do not wait forever on grandchildren that keep the pipes open.
		cmd.WaitDelay = time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil && cmd.ProcessState == nil {
		msg := fmt.Sprintf("Error executing command: %v", err)
		return domain.ExecutionResult{Error: &msg, ExitCode: -1, Duration: elapsed}
	}

	out := decode(stdout.Bytes())
	res := domain.ExecutionResult{
		Output:   &out,
		ExitCode: cmd.ProcessState.ExitCode(),
		Launched: true,
		Duration: elapsed,
	}

	errText := decode(stderr.Bytes())
	switch {
	case err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		errText = joinLines(fmt.Sprintf("Command timed out after %s", e.timeout), errText)
	case errText != "":
		// stderr wins whatever the exit status
	case res.ExitCode > 0:
		errText = fmt.Sprintf("Command failed with exit code: %d", res.ExitCode)
	case res.ExitCode < 0:
		errText = fmt.Sprintf("Command terminated: %s", cmd.ProcessState.String())
	}
	if errText != "" {
		res.Error = &errText
	}
	return res
}

// decode turns captured bytes into trimmed UTF-8 text, replacing invalid
// sequences.
func decode(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "\uFFFD"))
}

func joinLines(a, b string) string {
	if b == "" {
		return a
	}
	return a + "\n" + b
}

var _ domain.CommandExecutor = (*LocalExecutor)(nil)
