package domain

import "context"

// CommandGenerator turns a natural-language query into shell command text.
type CommandGenerator interface {
	// Generate returns the raw model output or a *ModelError.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Name returns the generator's identifier (e.g., "responses", "fixture").
	Name() string
}
