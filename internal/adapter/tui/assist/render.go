package assist

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// commandRenderer renders the pending command as a fenced shell block.
// The glamour renderer is rebuilt only when the wrap width changes.
type commandRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newCommandRenderer(style string) *commandRenderer {
	if style == "" {
		style = "auto"
	}
	return &commandRenderer{style: style}
}

// Render returns the styled command, or an indented plain copy when glamour
// cannot render it.
func (r *commandRenderer) Render(command string, width int) string {
	if width <= 0 {
		width = 80
	}
	if r.renderer == nil || r.width != width {
		opt := glamour.WithAutoStyle()
		if r.style != "auto" {
			opt = glamour.WithStandardStyle(r.style)
		}
		tr, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
		if err != nil {
			return plainCommand(command)
		}
		r.renderer = tr
		r.width = width
	}

	out, err := r.renderer.Render("```sh\n" + command + "\n```\n")
	if err != nil {
		return plainCommand(command)
	}
	return strings.Trim(out, "\n")
}

func plainCommand(command string) string {
	lines := strings.Split(command, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
