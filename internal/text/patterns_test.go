package text

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoadPatternPacks_MissingDirIsEmpty(t *testing.T) {
	patterns, err := LoadPatternPacks(filepath.Join(t.TempDir(), "nope"), testLogger())
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns, got %v", patterns)
	}
}

func TestLoadPatternPacks_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	pack := "name: promo\npatterns:\n  - buy now\n  - '(?i)\\bfree\\s+money\\b'\n"
	if err := os.WriteFile(filepath.Join(dir, "promo.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-YAML and malformed files are skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte(":\n :bad"), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadPatternPacks(dir, testLogger())
	if err != nil {
		t.Fatalf("LoadPatternPacks: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %v", patterns)
	}
}

func TestCompilePatterns(t *testing.T) {
	compiled, err := compilePatterns([]string{"plain words", `^regex$`})
	if err != nil {
		t.Fatalf("compilePatterns: %v", err)
	}
	if !compiled[0].MatchString("PLAIN WORDS here") {
		t.Error("literal patterns should match case-insensitively")
	}
	if !compiled[1].MatchString("regex") || compiled[1].MatchString("a regex b") {
		t.Error("regex patterns should compile verbatim")
	}

	if _, err := compilePatterns([]string{`(bad`}); err == nil {
		t.Error("expected error for invalid regex")
	}
}
