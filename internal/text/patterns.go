package text

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PatternPack is a YAML file of extra injection patterns, letting a
// deployment tighten the sanitizer without a rebuild.
type PatternPack struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// LoadPatternPacks reads every *.yaml / *.yml file in dir and returns the
// collected patterns. A missing directory is not an error; malformed files
// are skipped with a warning.
func LoadPatternPacks(dir string, logger *slog.Logger) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("pattern pack directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pattern pack dir: %w", err)
	}

	var patterns []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read pattern pack", "path", path, "err", err)
			continue
		}

		var pack PatternPack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			logger.Warn("cannot parse pattern pack", "path", path, "err", err)
			continue
		}
		if pack.Name == "" {
			pack.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		logger.Info("loaded pattern pack", "name", pack.Name, "patterns", len(pack.Patterns))
		patterns = append(patterns, pack.Patterns...)
	}

	return patterns, nil
}

// compilePatterns turns configured pattern strings into regexps. Simple
// strings are converted to case-insensitive substring matches; anything that
// looks like a regex is compiled directly.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		var re *regexp.Regexp
		var err error
		if isRegex(p) {
			re, err = regexp.Compile(p)
		} else {
			re, err = regexp.Compile(`(?i)` + regexp.QuoteMeta(p))
		}
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func isRegex(s string) bool {
	for _, c := range s {
		switch c {
		case '(', ')', '[', ']', '{', '}', '|', '^', '$', '.', '*', '+', '?', '\\':
			return true
		}
	}
	return false
}
