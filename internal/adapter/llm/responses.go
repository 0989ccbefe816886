package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"shellmate/internal/domain"
	"shellmate/internal/infra/config"
	"shellmate/internal/infra/logger"
	"shellmate/internal/infra/tracer"
)

const responsesOp = "ResponsesProvider.Generate"

// marshalRequest is swapped in tests to force an encoding failure.
var marshalRequest = json.Marshal

// ResponsesProvider implements domain.CommandGenerator against an
// OpenAI Responses-style endpoint.
type ResponsesProvider struct {
	name        string
	model       string
	apiKey      string
	personaRole string
	endpoint    string
	endpointErr error
	client      *http.Client
	logger      *slog.Logger
}

// NewResponsesProvider creates a provider from the model backend config.
// The credential is captured here; a malformed endpoint is remembered and
// reported on every call.
func NewResponsesProvider(cfg config.LLMConfig, log *slog.Logger) *ResponsesProvider {
	if log == nil {
		log = logger.Discard()
	}
	var endpoint string
	u, err := ParseEndpoint(cfg.Endpoint)
	if err == nil {
		endpoint = u.String()
	}
	return &ResponsesProvider{
		name:        "responses",
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		personaRole: cfg.PersonaRole,
		endpoint:    endpoint,
		endpointErr: err,
		client:      NewHTTPClient(cfg),
		logger:      log,
	}
}

// WithHTTPClient replaces the HTTP client. Used by tests and by callers that
// bring their own transport.
func (p *ResponsesProvider) WithHTTPClient(c *http.Client) *ResponsesProvider {
	p.client = c
	return p
}

// Generate implements domain.CommandGenerator. The backend is contacted at
// most once per call.
func (p *ResponsesProvider) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if req.Model == "" {
		req.Model = p.model
	}

	ctx, span := tracer.StartSpan(ctx, "llm.generate",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	text, usage, err := p.generate(ctx, req)
	if err != nil {
		tracer.SetResult(span, err)
		p.logger.Debug("llm generate failed",
			"provider", p.name,
			"model", req.Model,
			"code", domain.ErrorCodeOf(err),
			"error", err,
		)
		return "", err
	}

	setUsageAttrs(span, usage)
	tracer.SetResult(span, nil)
	logGenerateCompleted(p.logger, p.name, req.Model, usage)
	return text, nil
}

func (p *ResponsesProvider) generate(ctx context.Context, req domain.GenerateRequest) (string, *domain.Usage, error) {
	if p.apiKey == "" {
		return "", nil, domain.NewModelError(responsesOp, domain.ErrCredentialMissing, "no API key configured", nil)
	}
	if p.endpointErr != nil {
		return "", nil, domain.NewModelError(responsesOp, domain.ErrInvalidEndpoint, "", p.endpointErr)
	}

	body, err := marshalRequest(domain.AssembleRequest(req, p.personaRole))
	if err != nil {
		return "", nil, domain.NewModelError(responsesOp, domain.ErrRequestEncoding, "", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}
	respBody, err := postJSON(ctx, p.client, responsesOp, p.endpoint, body, headers)
	if err != nil {
		return "", nil, err
	}

	var resp domain.ModelResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", nil, domain.NewModelError(responsesOp, domain.ErrResponseDecoding, "", err)
	}

	text, ok := resp.FirstText()
	if !ok {
		return "", resp.Usage, domain.NewModelError(responsesOp, domain.ErrDataExtraction, "no generated text in response", nil)
	}
	return text, resp.Usage, nil
}

// Name implements domain.CommandGenerator.
func (p *ResponsesProvider) Name() string { return p.name }

// ParseEndpoint accepts absolute http(s) URLs with a host. The client and
// doctor both validate llm.endpoint through it.
func ParseEndpoint(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q: missing host", raw)
	}
	return u, nil
}

var _ domain.CommandGenerator = (*ResponsesProvider)(nil)
