package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.InputFile = "candidates.csv"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty input file",
			mutate:  func(cfg *Config) { cfg.InputFile = "" },
			wantErr: "input file",
		},
		{
			name:    "empty output file",
			mutate:  func(cfg *Config) { cfg.OutputFile = "" },
			wantErr: "output file",
		},
		{
			name:    "bad output format",
			mutate:  func(cfg *Config) { cfg.OutputFormat = "xml" },
			wantErr: "output format",
		},
		{
			name:    "zero batch size",
			mutate:  func(cfg *Config) { cfg.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "negative batch interval",
			mutate:  func(cfg *Config) { cfg.BatchInterval = -time.Second },
			wantErr: "batch interval",
		},
		{
			name:    "zero enrichment timeout",
			mutate:  func(cfg *Config) { cfg.EnrichTimeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "hostless enrichment url",
			mutate:  func(cfg *Config) { cfg.EnrichBaseURL = "http://" },
			wantErr: "base URL",
		},
		{
			name:    "invalid rule set",
			mutate:  func(cfg *Config) { cfg.Rules.MarkupMultiplier = 0 },
			wantErr: "rule set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("VERIFIER_TEST_STR", "hello")
	t.Setenv("VERIFIER_TEST_INT", "42")
	t.Setenv("VERIFIER_TEST_FLOAT", "0.25")
	t.Setenv("VERIFIER_TEST_BAD", "nope")

	if got, ok := EnvString("VERIFIER_TEST_STR"); !ok || got != "hello" {
		t.Errorf("EnvString = %q/%v", got, ok)
	}
	if _, ok := EnvString("VERIFIER_TEST_UNSET"); ok {
		t.Error("EnvString reported an unset variable")
	}

	if got, ok, err := EnvInt("VERIFIER_TEST_INT"); err != nil || !ok || got != 42 {
		t.Errorf("EnvInt = %d/%v/%v", got, ok, err)
	}
	if _, _, err := EnvInt("VERIFIER_TEST_BAD"); err == nil {
		t.Error("EnvInt accepted garbage")
	}

	if got, ok, err := EnvFloat("VERIFIER_TEST_FLOAT"); err != nil || !ok || got != 0.25 {
		t.Errorf("EnvFloat = %v/%v/%v", got, ok, err)
	}
}
