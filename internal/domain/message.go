package domain

import (
	"fmt"
	"strings"
)

// Role constants for message roles.
const (
	RoleDeveloper = "developer"
	RoleSystem    = "system"
	RoleUser      = "user"
)

// SentinelError is the literal a model emits instead of a command when it
// declines a request.
const SentinelError = "ERROR:"

// Message is a single role-tagged input item.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelRequest is the outbound request body.
type ModelRequest struct {
	Model string    `json:"model"`
	Input []Message `json:"input"`
}

// ModelResponse is the decoded success body. Every level is optional.
type ModelResponse struct {
	Output []OutputItem `json:"output,omitempty"`
	Usage  *Usage       `json:"usage,omitempty"`
}

// OutputItem is one entry of ModelResponse.Output.
type OutputItem struct {
	Content []ContentItem `json:"content,omitempty"`
}

// ContentItem holds generated text.
type ContentItem struct {
	Text string `json:"text"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// FirstText returns the first content item's text of the first output item.
// ok is false when either list is absent or empty.
func (r *ModelResponse) FirstText() (text string, ok bool) {
	if r == nil || len(r.Output) == 0 || len(r.Output[0].Content) == 0 {
		return "", false
	}
	return r.Output[0].Content[0].Text, true
}

// GenerateRequest is the input of a CommandGenerator call.
type GenerateRequest struct {
	Query        string
	Persona      string
	Instructions string
	Model        string
}

// UserContent combines the raw query with the instruction block.
func UserContent(query, instructions string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User's natural language request: '%s'\n\n", query)
	if instructions != "" {
		sb.WriteString(instructions)
		sb.WriteString("\n")
	}
	sb.WriteString("Commands:")
	return sb.String()
}

// AssembleRequest builds the two-message request: persona first, user second.
// personaRole defaults to RoleDeveloper and must differ from RoleUser.
func AssembleRequest(req GenerateRequest, personaRole string) ModelRequest {
	if personaRole == "" || personaRole == RoleUser {
		personaRole = RoleDeveloper
	}
	return ModelRequest{
		Model: req.Model,
		Input: []Message{
			{Role: personaRole, Content: req.Persona},
			{Role: RoleUser, Content: UserContent(req.Query, req.Instructions)},
		},
	}
}

// IsDeclined reports whether a model reply starts with the sentinel token.
func IsDeclined(reply string) bool {
	return strings.HasPrefix(strings.TrimSpace(reply), SentinelError)
}
