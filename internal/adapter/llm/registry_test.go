package llm

import (
	"errors"
	"strings"
	"testing"

	"shellmate/internal/domain"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewFixtureProvider(nil, newTestLogger())); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubGenerator{name: "responses"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Register(&stubGenerator{name: "fixture"}); err == nil {
		t.Error("expected duplicate registration error")
	}

	g, err := r.Get("fixture")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.Name() != "fixture" {
		t.Errorf("Name() = %q", g.Name())
	}

	_, err = r.Get("carrier-pigeon")
	if !errors.Is(err, domain.ErrGeneratorNotFound) {
		t.Errorf("expected ErrGeneratorNotFound, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "available: fixture, responses") {
		t.Errorf("error should list registered names: %v", err)
	}

	names := r.List()
	if len(names) != 2 || names[0] != "fixture" || names[1] != "responses" {
		t.Errorf("List() = %v", names)
	}
}
