package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadIncludesOverlayInOrder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "conf.d"), 0700); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, dir, "conf.d/10-prompt.yaml", "prompt:\n  persona: \"included persona\"\n")
	writeConfig(t, dir, "conf.d/20-shell.yaml", "shell:\n  path: /bin/bash\n")
	path := writeConfig(t, dir, "shellmate.yaml", `
includes:
  - conf.d/*.yaml
llm:
  model: "base-model"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt.Persona != "included persona" {
		t.Errorf("Persona = %q", cfg.Prompt.Persona)
	}
	if cfg.Shell.Path != "/bin/bash" {
		t.Errorf("Shell.Path = %q", cfg.Shell.Path)
	}
	if cfg.LLM.Model != "base-model" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if len(cfg.Includes) != 0 {
		t.Errorf("Includes should be consumed, got %v", cfg.Includes)
	}
}

func TestLoadIncludesNested(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	writeConfig(t, dir, "b.yaml", "llm:\n  model: from-b\n")
	writeConfig(t, dir, "a.yaml", "includes: [b.yaml]\nshell:\n  path: /bin/zsh\n")
	path := writeConfig(t, dir, "shellmate.yaml", "includes: [a.yaml]\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "from-b" || cfg.Shell.Path != "/bin/zsh" {
		t.Errorf("nested include not applied: model=%q shell=%q", cfg.LLM.Model, cfg.Shell.Path)
	}
}

func TestLoadIncludesCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "includes: [shellmate.yaml]\n")
	path := writeConfig(t, dir, "shellmate.yaml", "includes: [a.yaml]\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "included twice") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestLoadIncludesMissingFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "shellmate.yaml", "includes: [nope.yaml]\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing include")
	}
}

func TestLoadIncludesEmptyGlob(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, t.TempDir(), "shellmate.yaml", "includes: [\"extra/*.yaml\"]\n")
	if _, err := Load(path); err != nil {
		t.Errorf("glob with no matches should be fine: %v", err)
	}
}

func TestExpandIncludeRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	if _, err := expandInclude("../outside.yaml", base); err == nil {
		t.Error("expected traversal error")
	}
}
