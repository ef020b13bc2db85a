package internal

import (
	"strings"
	"testing"

	"github.com/binhphanhai/crambook/internal/lint"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestCorpusConfig_InvalidIgnorePattern(t *testing.T) {
	cfg := CorpusConfig{Path: "./corpus", Ignore: []string{"[unclosed"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed ignore pattern should fail validation")
	}
}

func TestCorpusConfig_ValidIgnorePatterns(t *testing.T) {
	cfg := CorpusConfig{Path: "./corpus", Ignore: []string{".git/**", "drafts/**", "**/*.tmp"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid ignore patterns should pass: %v", err)
	}
}

func TestCorpusConfig_MissingPath(t *testing.T) {
	cfg := CorpusConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty corpus path should fail validation")
	}
}

func TestLintConfig_UnknownRule(t *testing.T) {
	cfg := LintConfig{DisabledRules: []string{"no-such-rule"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("unknown rule id should fail validation")
	}
	if !strings.Contains(err.Error(), "no-such-rule") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLintConfig_KnownRules(t *testing.T) {
	cfg := LintConfig{DisabledRules: []string{lint.RuleFenceLanguage, lint.RuleTitleMissing}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("known rule ids should pass: %v", err)
	}
	opts := cfg.Options()
	if len(opts.Disabled) != 2 {
		t.Errorf("Options().Disabled = %v, want 2 entries", opts.Disabled)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestFullConfig_LintValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Lint.DisabledRules = []string{"bogus"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch lint error")
	}
}
