package assist

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"shellmate/internal/usecase"
)

// runTaskCmd runs a session task off the update loop. The result comes back
// as a CompletionMsg.
func runTaskCmd(ctx context.Context, task usecase.Task) tea.Cmd {
	return func() tea.Msg {
		return CompletionMsg{Completion: task(ctx)}
	}
}
