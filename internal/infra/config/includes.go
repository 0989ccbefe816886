package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxIncludeDepth = 4

// mergeIncludes overlays every file named by cfg.Includes onto cfg, in order.
// Patterns may be globs and resolve relative to baseDir; they must stay
// inside it. seen holds absolute paths already merged.
func mergeIncludes(cfg *Config, baseDir string, seen map[string]bool, depth int) error {
	if depth >= maxIncludeDepth {
		return fmt.Errorf("config includes: nesting deeper than %d", maxIncludeDepth)
	}

	patterns := cfg.Includes
	cfg.Includes = nil

	for _, pattern := range patterns {
		paths, err := expandInclude(pattern, baseDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if seen[p] {
				return fmt.Errorf("config includes: %q included twice", p)
			}
			seen[p] = true
			if err := overlayFile(cfg, p, seen, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandInclude turns one include pattern into absolute file paths.
// A glob matching nothing yields no paths; a literal path is returned as is
// so a missing file is reported by overlayFile.
func expandInclude(pattern, baseDir string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}
	pattern = filepath.Clean(pattern)

	if rel, err := filepath.Rel(baseDir, pattern); err == nil && strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("config includes: %q is outside %s", pattern, baseDir)
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("config includes: bad pattern %q: %w", pattern, err)
	}
	for i, m := range matches {
		if abs, err := filepath.Abs(m); err == nil {
			matches[i] = abs
		}
	}
	return matches, nil
}

// overlayFile unmarshals one included file on top of cfg, then follows its
// own includes.
func overlayFile(cfg *Config, path string, seen map[string]bool, depth int) error {
	if err := validatePermissions(path); err != nil {
		return fmt.Errorf("config includes: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config includes: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config includes: parse %s: %w", path, err)
	}
	if len(cfg.Includes) == 0 {
		return nil
	}
	return mergeIncludes(cfg, filepath.Dir(path), seen, depth)
}
