package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"shellmate/internal/domain"
	"shellmate/internal/infra/config"
)

// roundTripFunc is a function type that implements http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// errorReadCloser is an io.ReadCloser whose Read always returns an error.
type errorReadCloser struct{}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated body read error")
}

func (e *errorReadCloser) Close() error {
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Provider:    "responses",
		Endpoint:    endpoint,
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		PersonaRole: "developer",
	}
}

var testRequest = domain.GenerateRequest{
	Query:        "list files",
	Persona:      "You generate terminal commands.",
	Instructions: "One command per line.",
}

func TestResponsesProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}

		var req domain.ModelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Input) != 2 || req.Input[0].Role != "developer" || req.Input[1].Role != "user" {
			t.Errorf("input = %+v", req.Input)
		}
		if !strings.Contains(req.Input[1].Content, "list files") {
			t.Errorf("user content = %q", req.Input[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"output":[{"content":[{"text":"  ls -la\n"}]}],"usage":{"input_tokens":12,"output_tokens":3,"total_tokens":15}}`)
	}))
	defer server.Close()

	p := NewResponsesProvider(testLLMConfig(server.URL+"/v1/responses"), newTestLogger())
	got, err := p.Generate(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Raw text is returned untrimmed.
	if got != "  ls -la\n" {
		t.Errorf("got %q", got)
	}
	if p.Name() != "responses" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestResponsesProviderRequestModelOverride(t *testing.T) {
	var gotModel string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		var req domain.ModelRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(`{"output":[{"content":[{"text":"pwd"}]}]}`)),
		}, nil
	})}

	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)
	req := testRequest
	req.Model = "gpt-4.1"
	if _, err := p.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotModel != "gpt-4.1" {
		t.Errorf("model = %q, want gpt-4.1", gotModel)
	}
}

func TestResponsesProviderCredentialMissingMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	cfg := testLLMConfig(server.URL)
	cfg.APIKey = ""
	p := NewResponsesProvider(cfg, newTestLogger())

	_, err := p.Generate(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrCredentialMissing) {
		t.Fatalf("expected ErrCredentialMissing, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected zero network calls, got %d", calls.Load())
	}
}

func TestResponsesProviderCredentialCheckedBeforeEndpoint(t *testing.T) {
	cfg := testLLMConfig("not a url")
	cfg.APIKey = ""
	p := NewResponsesProvider(cfg, newTestLogger())

	_, err := p.Generate(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrCredentialMissing) {
		t.Errorf("expected ErrCredentialMissing, got %v", err)
	}
}

func TestResponsesProviderInvalidEndpoint(t *testing.T) {
	endpoints := []string{"", "not a url", "ftp://example.com/v1", "https://", "://bad", "/v1/responses"}
	for _, ep := range endpoints {
		t.Run(ep, func(t *testing.T) {
			p := NewResponsesProvider(testLLMConfig(ep), newTestLogger())
			p.WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				t.Error("no request expected")
				return nil, errors.New("unreachable")
			})})
			_, err := p.Generate(context.Background(), testRequest)
			if !errors.Is(err, domain.ErrInvalidEndpoint) {
				t.Errorf("expected ErrInvalidEndpoint, got %v", err)
			}
		})
	}
}

func TestResponsesProviderRequestEncodingFailure(t *testing.T) {
	orig := marshalRequest
	marshalRequest = func(any) ([]byte, error) { return nil, errors.New("unsupported value") }
	defer func() { marshalRequest = orig }()

	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger())
	_, err := p.Generate(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrRequestEncoding) {
		t.Errorf("expected ErrRequestEncoding, got %v", err)
	}
}

func TestResponsesProviderNetworkFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, cause
	})}
	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

	_, err := p.Generate(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestResponsesProviderBodyReadFailure(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: &errorReadCloser{}}, nil
	})}
	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

	_, err := p.Generate(context.Background(), testRequest)
	var me *domain.ModelError
	if !errors.As(err, &me) {
		t.Fatalf("expected *ModelError, got %T (%v)", err, err)
	}
	if me.Kind != domain.ErrBadResponse || me.StatusCode != 0 {
		t.Errorf("kind=%v status=%d", me.Kind, me.StatusCode)
	}
}

func TestResponsesProviderBadResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        []byte
		wantDetails string
	}{
		{"unauthorized with text", 401, []byte(`{"error":"invalid key"}`), `{"error":"invalid key"}`},
		{"server error empty body", 500, nil, ""},
		{"not found invalid utf8", 404, []byte{0xff, 0xfe, 0xfd}, ""},
		{"redirect status", 302, []byte("moved"), "moved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: tt.status,
					Body:       io.NopCloser(strings.NewReader(string(tt.body))),
				}, nil
			})}
			p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

			_, err := p.Generate(context.Background(), testRequest)
			var me *domain.ModelError
			if !errors.As(err, &me) {
				t.Fatalf("expected *ModelError, got %v", err)
			}
			if me.Kind != domain.ErrBadResponse {
				t.Errorf("kind = %v", me.Kind)
			}
			if me.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", me.StatusCode, tt.status)
			}
			if me.Details != tt.wantDetails {
				t.Errorf("details = %q, want %q", me.Details, tt.wantDetails)
			}
		})
	}
}

func TestResponsesProviderAccepts2xx(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"output":[{"content":[{"text":"date"}]}]}`)),
		}, nil
	})}
	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

	got, err := p.Generate(context.Background(), testRequest)
	if err != nil || got != "date" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestResponsesProviderDecodeAndExtraction(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind error
	}{
		{"not json", "<html>oops</html>", domain.ErrResponseDecoding},
		{"empty body", "", domain.ErrResponseDecoding},
		{"wrong shape", `{"output":"text"}`, domain.ErrResponseDecoding},
		{"empty object", `{}`, domain.ErrDataExtraction},
		{"empty output", `{"output":[]}`, domain.ErrDataExtraction},
		{"empty content", `{"output":[{"content":[]}]}`, domain.ErrDataExtraction},
		{"usage only", `{"usage":{"total_tokens":3}}`, domain.ErrDataExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(tt.body))}, nil
			})}
			p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

			_, err := p.Generate(context.Background(), testRequest)
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("expected %v, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestResponsesProviderExtractionReason(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{}`))}, nil
	})}
	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), newTestLogger()).WithHTTPClient(client)

	_, err := p.Generate(context.Background(), testRequest)
	if err == nil || err.Error() != "data extraction failed: no generated text in response" {
		t.Errorf("err = %v", err)
	}
}

func TestResponsesProviderSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewResponsesProvider(testLLMConfig(server.URL), newTestLogger())
	_, err := p.Generate(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one call, got %d", calls.Load())
	}
}

func TestResponsesProviderNilLogger(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	p := NewResponsesProvider(testLLMConfig("https://example.test/v1/responses"), nil).WithHTTPClient(client)

	if _, err := p.Generate(context.Background(), testRequest); !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}

	bad := NewResponsesProvider(testLLMConfig("ftp://example.test"), nil)
	if _, err := bad.Generate(context.Background(), testRequest); !errors.Is(err, domain.ErrInvalidEndpoint) {
		t.Errorf("expected ErrInvalidEndpoint, got %v", err)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr string
	}{
		{"https://api.example.com/v1/responses", ""},
		{"http://localhost:8080/v1/responses", ""},
		{"", "empty"},
		{"ftp://example.com", "scheme must be http or https"},
		{"https://", "missing host"},
		{"/v1/responses", "scheme must be http or https"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := ParseEndpoint(tt.raw)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseEndpoint: %v", err)
				}
				if u.String() != tt.raw {
					t.Errorf("url = %q", u)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
