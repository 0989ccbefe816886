package domain

import (
	"context"
	"time"
)

// ExecutionResult reports what happened to one shell command.
// Output and Error are nil when absent.
type ExecutionResult struct {
	Output   *string
	Error    *string
	ExitCode int // -1 when the process never ran or was killed
	Launched bool
	Duration time.Duration
}

// HasError reports whether the error channel carries non-empty text.
func (r ExecutionResult) HasError() bool {
	return r.Error != nil && *r.Error != ""
}

// CommandExecutor runs a single command line synchronously.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) ExecutionResult
}
