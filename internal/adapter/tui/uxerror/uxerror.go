// Package uxerror translates model and session errors into user-friendly
// messages with recovery hints for the TUI.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"shellmate/internal/adapter/tui/theme"
	"shellmate/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "API Key Missing"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text
}

// Render formats the FriendlyError as plain text.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(fe.Title)
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	{
		match: isKind(domain.ErrCredentialMissing),
		produce: constantError("API Key Missing", "No credential is configured for the model backend.", []string{
			"Export OPENAI_API_KEY (or the variable named by llm.api_key_env)",
			"Or set llm.api_key in shellmate.yaml, optionally encrypted with 'shellmate encrypt'",
		}),
	},
	{
		match: isKind(domain.ErrInvalidEndpoint),
		produce: constantError("Invalid Endpoint", "The configured model endpoint is not a valid http(s) URL.", []string{
			"Check llm.endpoint in shellmate.yaml or SHELLMATE_LLM_ENDPOINT",
			"Run 'shellmate doctor' to validate the setup",
		}),
	},
	{
		match: isKind(domain.ErrNetwork),
		produce: constantError("Connection Failed", "Could not reach the model backend.", []string{
			"Check your internet connection",
			"Verify llm.endpoint",
			"Check if a proxy or firewall is blocking the connection",
		}),
	},
	{
		match: badStatus(401, 403),
		produce: constantError("Authentication Failed", "The backend rejected the API key.", []string{
			"Check the value of your API key environment variable",
			"Verify the key hasn't expired",
		}),
	},
	{
		match: badStatus(429),
		produce: constantError("Rate Limited", "Too many requests sent to the backend.", []string{
			"Wait a moment before retrying",
			"Check your plan's rate limits",
		}),
	},
	{
		match: badStatus(404),
		produce: constantError("Endpoint Not Found", "The backend does not serve the configured path or model.", []string{
			"Check llm.endpoint and llm.model",
		}),
	},
	{
		match: isKind(domain.ErrBadResponse),
		produce: func(err error) FriendlyError {
			var me *domain.ModelError
			msg := "The backend answered with an error."
			if errors.As(err, &me) && me.StatusCode >= 500 {
				msg = "The backend is having trouble right now."
			}
			return FriendlyError{
				Title:   "Bad Response",
				Message: msg,
				Hints:   []string{"Try again in a moment", "Set logger.level to debug to see the response body"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: isKind(domain.ErrResponseDecoding),
		produce: constantError("Unexpected Response", "The backend's reply was not in the expected format.", []string{
			"Make sure llm.endpoint points at a Responses-style API",
		}),
	},
	{
		match: isKind(domain.ErrDataExtraction),
		produce: constantError("Empty Reply", "The backend returned no generated text.", []string{
			"Rephrase the request and try again",
		}),
	},
	{
		match: isKind(domain.ErrRequestEncoding),
		produce: constantError("Request Failed", "The request could not be encoded.", []string{
			"Remove unusual characters from the query and try again",
		}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrSessionBusy) },
		produce: constantError("Busy", "Wait for the current operation to finish.", nil),
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}

	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}

	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Set logger.level to debug for more details"},
		Raw:     err.Error(),
	}
}

func isKind(kind error) func(error) bool {
	return func(err error) bool { return domain.KindOf(err) == kind }
}

func badStatus(codes ...int) func(error) bool {
	return func(err error) bool {
		var me *domain.ModelError
		if !errors.As(err, &me) || me.Kind != domain.ErrBadResponse {
			return false
		}
		for _, c := range codes {
			if me.StatusCode == c {
				return true
			}
		}
		return false
	}
}

// constantError returns a produce func that always returns the same FriendlyError.
func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
			Raw:     err.Error(),
		}
	}
}
