package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/webpuppy/webhound-go/internal/validation"
)

const sampleRules = `
limits:
  min_length: 5
  max_length: 64
categories:
  - code: spam_pattern
    warning: Spam-like pattern detected
    suggestion: Use natural language
    patterns:
      - '[!?]{3,}'
  - code: suspicious_pattern
    warning: Suspicious patterns detected
    suggestion: Use clear language
    patterns:
      - 'https?://\S+'
generic_patterns:
  - '(?i)^(hi|test)$'
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "validation.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestLoadRules_FromFile(t *testing.T) {
	t.Setenv("VALIDATION_RULES_PATH", writeRules(t, sampleRules))

	rules, err := LoadRules()
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	if rules.MinLength != 5 || rules.MaxLength != 64 {
		t.Errorf("limits not applied: min=%d max=%d", rules.MinLength, rules.MaxLength)
	}
	// Unset advisory limits fall back to defaults.
	if rules.ShortAdvisoryLen != 10 || rules.LongAdvisoryLen != 800 {
		t.Errorf("advisory defaults not applied: %d/%d", rules.ShortAdvisoryLen, rules.LongAdvisoryLen)
	}
	if len(rules.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(rules.Categories))
	}
	if rules.Categories[0].Code != validation.ReasonSpamPattern {
		t.Errorf("category order not preserved: %v", rules.Categories[0].Code)
	}
	if len(rules.Categories[0].Checks) == 0 {
		t.Error("spam category should keep the structural repeated-run check")
	}

	validator := validation.NewValidator(rules)
	if result := validator.Validate("really now!!!"); !result.IsBlocked {
		t.Errorf("custom spam pattern should block, got %+v", result)
	}
	if result := validator.Validate("top five languages"); !result.IsValid {
		t.Errorf("clean query should pass custom rules, got %+v", result)
	}
}

func TestLoadRules_MissingDefaultFallsBack(t *testing.T) {
	t.Setenv("VALIDATION_RULES_PATH", "")
	t.Chdir(t.TempDir())

	rules, err := LoadRules()
	if err != nil {
		t.Fatalf("missing default file should not error, got %v", err)
	}
	if rules.MinLength != 3 || rules.MaxLength != 1024 {
		t.Errorf("expected built-in limits, got min=%d max=%d", rules.MinLength, rules.MaxLength)
	}
	if len(rules.Categories) != 5 {
		t.Errorf("expected 5 built-in categories, got %d", len(rules.Categories))
	}
}

func TestLoadRules_ExplicitMissingPathErrors(t *testing.T) {
	t.Setenv("VALIDATION_RULES_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := LoadRules(); err == nil {
		t.Error("explicit missing path should error")
	}
}

func TestCompile_BadPattern(t *testing.T) {
	cfg := RulesConfig{
		Categories: []CategoryConfig{
			{Code: "spam_pattern", Patterns: []string{"("}},
		},
	}
	if _, err := Compile(cfg); err == nil {
		t.Error("invalid pattern should fail compilation")
	}
}
