package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Model-layer error kinds. Every failure of a CommandGenerator wraps exactly
// one of these; the text doubles as the fixed prefix of the rendered message.
var (
	ErrRequestEncoding   = errors.New("request encoding failed")
	ErrInvalidEndpoint   = errors.New("invalid endpoint")
	ErrNetwork           = errors.New("network failure")
	ErrBadResponse       = errors.New("bad response")
	ErrResponseDecoding  = errors.New("response decoding failed")
	ErrDataExtraction    = errors.New("data extraction failed")
	ErrCredentialMissing = errors.New("credential missing")
)

// Session errors.
var (
	ErrSessionBusy       = fmt.Errorf("session busy")
	ErrGeneratorNotFound = fmt.Errorf("command generator not found")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
)

// modelKinds lists the taxonomy in a stable order.
var modelKinds = []error{
	ErrRequestEncoding,
	ErrInvalidEndpoint,
	ErrNetwork,
	ErrBadResponse,
	ErrResponseDecoding,
	ErrDataExtraction,
	ErrCredentialMissing,
}

// ModelKinds returns the closed set of model-layer error kinds.
func ModelKinds() []error {
	out := make([]error, len(modelKinds))
	copy(out, modelKinds)
	return out
}

// ModelError is a classified failure of a model call.
type ModelError struct {
	Op         string // operation name (e.g., "ResponsesProvider.Generate")
	Kind       error  // one of the model-layer kinds
	StatusCode int    // HTTP status for ErrBadResponse; 0 when no status was received
	Details    string // human-readable detail or raw response body
	Err        error  // underlying cause, may be nil
}

func (e *ModelError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Kind == ErrBadResponse {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Details != "" && e.Err != nil:
		fmt.Fprintf(&sb, ": %s: %v", e.Details, e.Err)
	case e.Details != "":
		sb.WriteString(": ")
		sb.WriteString(e.Details)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *ModelError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewModelError creates a ModelError of the given kind.
func NewModelError(op string, kind error, detail string, cause error) *ModelError {
	return &ModelError{Op: op, Kind: kind, Details: detail, Err: cause}
}

// NewBadResponseError creates an ErrBadResponse with a status code.
func NewBadResponseError(op string, status int, details string) *ModelError {
	return &ModelError{Op: op, Kind: ErrBadResponse, StatusCode: status, Details: details}
}

// KindOf returns the model-layer kind wrapped by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind
	}
	for _, k := range modelKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindFromMessage recovers the kind from a rendered error message by its
// fixed prefix. An optional "Error: " lead-in is ignored.
func KindFromMessage(msg string) error {
	msg = strings.TrimPrefix(msg, "Error: ")
	for _, k := range modelKinds {
		if strings.HasPrefix(msg, k.Error()) {
			return k
		}
	}
	return nil
}

// ErrorCode is a machine-parseable error category for logs.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeRequestEncoding   ErrorCode = "REQUEST_ENCODING"
	CodeInvalidEndpoint   ErrorCode = "INVALID_ENDPOINT"
	CodeNetwork           ErrorCode = "NETWORK"
	CodeBadResponse       ErrorCode = "BAD_RESPONSE"
	CodeResponseDecoding  ErrorCode = "RESPONSE_DECODING"
	CodeDataExtraction    ErrorCode = "DATA_EXTRACTION"
	CodeCredentialMissing ErrorCode = "CREDENTIAL_MISSING"
	CodeSessionBusy       ErrorCode = "SESSION_BUSY"
	CodeGeneratorNotFound ErrorCode = "GENERATOR_NOT_FOUND"
	CodeConfigLoad        ErrorCode = "CONFIG_LOAD"
)

var errorCodeMap = map[error]ErrorCode{
	ErrRequestEncoding:   CodeRequestEncoding,
	ErrInvalidEndpoint:   CodeInvalidEndpoint,
	ErrNetwork:           CodeNetwork,
	ErrBadResponse:       CodeBadResponse,
	ErrResponseDecoding:  CodeResponseDecoding,
	ErrDataExtraction:    CodeDataExtraction,
	ErrCredentialMissing: CodeCredentialMissing,
	ErrSessionBusy:       CodeSessionBusy,
	ErrGeneratorNotFound: CodeGeneratorNotFound,
	ErrConfigLoad:        CodeConfigLoad,
}

// ErrorCodeOf returns the code for err, or CodeUnknown.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[err]; ok {
		return code
	}
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code()
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this error's kind.
func (e *ModelError) Code() ErrorCode {
	if code, ok := errorCodeMap[e.Kind]; ok {
		return code
	}
	return CodeUnknown
}
