package model

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}

	if cfg.Pipeline.Limit != 30 {
		t.Errorf("Expected default limit 30, got %d", cfg.Pipeline.Limit)
	}
	if cfg.Pipeline.MinLength != 25 {
		t.Errorf("Expected default min length 25, got %d", cfg.Pipeline.MinLength)
	}
	if !cfg.Pipeline.SkipProcessed {
		t.Error("Expected skip_processed to default to true")
	}
	if cfg.LLM.Timeout != 120*time.Second {
		t.Errorf("Expected 120s model timeout, got %v", cfg.LLM.Timeout)
	}
}

func TestDefaultConfigKeywordsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Keywords[0] = "changed"

	if DefaultKeywords[0] != "startup" {
		t.Errorf("Expected DefaultKeywords to be untouched, got %q", DefaultKeywords[0])
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bogus" }, "Provider"},
		{"empty model", func(c *Config) { c.LLM.Model = "" }, "Model"},
		{"zero limit", func(c *Config) { c.Pipeline.Limit = 0 }, "Limit"},
		{"no keywords", func(c *Config) { c.Pipeline.Keywords = nil }, "Keywords"},
		{"blank keyword", func(c *Config) { c.Pipeline.Keywords = []string{"startup", ""} }, "Keywords"},
		{"unknown source", func(c *Config) { c.Source.Kind = "twitter" }, "Kind"},
		{"short timeout", func(c *Config) { c.LLM.Timeout = time.Millisecond }, "Timeout"},
		{"bad report format", func(c *Config) { c.Report.Format = "html" }, "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected error to mention %s, got %v", tt.field, err)
			}
		})
	}
}
