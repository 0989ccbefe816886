// Package assist implements the interactive Bubble Tea front end: one query
// line, a status panel, and a review step before any command runs.
package assist

import "shellmate/internal/usecase"

// CompletionMsg carries the outcome of a background session task back into
// the update loop.
type CompletionMsg struct {
	Completion usecase.Completion
}
