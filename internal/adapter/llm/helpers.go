package llm

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"shellmate/internal/domain"
	"shellmate/internal/infra/tracer"
)

// maxResponseBody is the maximum response body size read from the backend.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// postJSON performs one JSON POST and returns the 2xx response body.
// Every failure comes back as a *domain.ModelError tagged with op.
func postJSON(ctx context.Context, client *http.Client, op, url string, body []byte, headers map[string]string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewModelError(op, domain.ErrInvalidEndpoint, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, domain.NewModelError(op, domain.ErrNetwork, "", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, &domain.ModelError{
			Op:      op,
			Kind:    domain.ErrBadResponse,
			Details: "read response body",
			Err:     err,
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, domain.NewBadResponseError(op, httpResp.StatusCode, bodyDetails(respBody))
	}

	return respBody, nil
}

// bodyDetails returns the body as text when it is non-empty valid UTF-8.
func bodyDetails(body []byte) string {
	if len(body) == 0 || !utf8.Valid(body) {
		return ""
	}
	return string(body)
}

// logGenerateCompleted logs the standard debug message after a model call.
func logGenerateCompleted(logger *slog.Logger, providerName, model string, usage *domain.Usage) {
	attrs := []any{"provider", providerName, "model", model}
	if usage != nil {
		attrs = append(attrs,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"tokens", usage.TotalTokens,
		)
	}
	logger.Debug("llm generate completed", attrs...)
}

// setUsageAttrs adds token usage attributes to a trace span.
func setUsageAttrs(span trace.Span, usage *domain.Usage) {
	if usage == nil {
		return
	}
	span.SetAttributes(
		tracer.IntAttr("llm.input_tokens", usage.InputTokens),
		tracer.IntAttr("llm.output_tokens", usage.OutputTokens),
		tracer.IntAttr("llm.total_tokens", usage.TotalTokens),
	)
}
