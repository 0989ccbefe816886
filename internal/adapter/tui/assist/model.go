package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shellmate/internal/adapter/tui/theme"
	"shellmate/internal/adapter/tui/uxerror"
	"shellmate/internal/domain"
	"shellmate/internal/infra/logger"
	"shellmate/internal/usecase"
)

// Deps are dependencies injected into the assist model.
type Deps struct {
	Session       *usecase.Session
	Style         string // glamour style name, or "auto"
	ModelName     string
	GeneratorName string
	Logger        *slog.Logger
}

// Model is the root Bubble Tea model for the assistant.
type Model struct {
	deps     Deps
	ctx      context.Context
	input    textinput.Model
	spinner  spinner.Model
	render   *commandRenderer
	notice   string // transient message for rejected key actions
	width    int
	quitting bool
}

// NewModel creates the assistant model. ctx bounds every background task it
// starts.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}

	ti := textinput.New()
	ti.Placeholder = usecase.StatusWelcome
	ti.Prompt = theme.SymbolPrompt + " "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Width = 60
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner

	return Model{
		deps:    deps,
		ctx:     ctx,
		input:   ti,
		spinner: s,
		render:  newCommandRenderer(deps.Style),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := min(msg.Width, theme.MaxContentWidth) - 6
		if w < 10 {
			w = 10
		}
		m.input.Width = w
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case CompletionMsg:
		m.deps.Session.Complete(msg.Completion)
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		// Ticks stop once the session is no longer busy.
		if !m.deps.Session.Snapshot().Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		m.deps.Session.SetQuery(m.input.Value())
		task, err := m.deps.Session.Submit()
		return m.start(task, err)

	case tea.KeyCtrlE:
		task, err := m.deps.Session.Confirm()
		return m.start(task, err)
	}

	m.notice = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start launches task in the background, or records why it was refused.
func (m Model) start(task usecase.Task, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		if !errors.Is(err, domain.ErrSessionBusy) {
			m.deps.Logger.Warn("session action rejected", "error", err)
		}
		m.notice = uxerror.Humanize(err).Message
		return m, nil
	}
	m.notice = ""
	if task == nil {
		return m, nil
	}
	return m, tea.Batch(runTaskCmd(m.ctx, task), m.spinner.Tick)
}

// View renders the assistant UI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	width = min(width, theme.MaxContentWidth)

	snap := m.deps.Session.Snapshot()
	parts := []string{
		theme.Title.Render("shellmate"),
		m.input.View(),
		"",
		m.statusPanel(snap, width),
	}
	if m.notice != "" {
		parts = append(parts, theme.TextWarning.Render(theme.SymbolWarning+" "+m.notice))
	}
	parts = append(parts, m.statusBar(snap, width))

	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) statusPanel(snap usecase.Snapshot, width int) string {
	inner := width - 4
	switch {
	case snap.Busy:
		return theme.PanelIdle.Width(inner).Render(m.spinner.View() + " " + snap.Status)

	case snap.Pending != "":
		body := strings.Join([]string{
			theme.Bold.Render("Generated Command:"),
			m.render.Render(snap.Pending, inner-2),
			theme.TextMuted.Render("Review it, then press ctrl+e to execute."),
		}, "\n")
		return theme.PanelReview.Width(inner).Render(body)

	case snap.LastErr != nil:
		fe := uxerror.Humanize(snap.LastErr)
		fe.Title = theme.SymbolError + " " + fe.Title
		body := theme.TextError.Render(fe.Title)
		if rest := strings.TrimPrefix(fe.Render(), fe.Title); rest != "" {
			body += rest
		}
		return theme.PanelFailure.Width(inner).Render(body)

	case snap.LastRun != nil:
		return runPanel(*snap.LastRun, snap.Status, inner)

	default:
		return theme.PanelIdle.Width(inner).Render(snap.Status)
	}
}

// runPanel shows the outcome of the last execution above its output.
func runPanel(res domain.ExecutionResult, status string, width int) string {
	detail := fmt.Sprintf("exit %d %s %s", res.ExitCode, theme.SymbolBullet, res.Duration.Round(time.Millisecond))
	if !res.Launched {
		detail = "not started"
	}
	if res.ExitCode == 0 && !res.HasError() {
		head := theme.TextSuccess.Render(theme.SymbolSuccess+" Done") + " " + theme.TextMuted.Render(detail)
		return theme.PanelSuccess.Width(width).Render(head + "\n" + status)
	}
	head := theme.TextError.Render(theme.SymbolError+" Failed") + " " + theme.TextMuted.Render(detail)
	return theme.PanelFailure.Width(width).Render(head + "\n" + status)
}

func (m Model) statusBar(snap usecase.Snapshot, width int) string {
	left := theme.StatusKey.Render(snap.State.String())
	if m.deps.GeneratorName != "" || m.deps.ModelName != "" {
		left += " " + theme.SymbolBullet + " " + strings.TrimSpace(m.deps.GeneratorName+" "+m.deps.ModelName)
	}
	hints := "enter ask " + theme.SymbolBullet + " ctrl+e run " + theme.SymbolBullet + " esc quit"
	gap := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + hints)
}
