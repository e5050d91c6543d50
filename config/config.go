// Package config holds verifier configuration and its validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dropship-tools/go-product-verify/rules"
)

// Config holds verifier configuration.
type Config struct {
	InputFile    string
	OutputFile   string
	OutputFormat string // csv, json, or dual

	BatchSize     int
	BatchInterval time.Duration

	EnrichBaseURL string
	EnrichAPIKey  string
	EnrichTimeout time.Duration

	CatalogFile string
	CatalogTTL  time.Duration

	MetricsAddr string
	Verbose     bool

	Rules rules.RuleSet
}

// DefaultConfig returns conservative defaults for a dropshipping catalog.
func DefaultConfig() *Config {
	return &Config{
		OutputFile:    "output/verified.csv",
		OutputFormat:  "csv",
		BatchSize:     100,
		BatchInterval: time.Second,
		EnrichTimeout: 10 * time.Second,
		CatalogTTL:    5 * time.Minute,
		Rules: rules.RuleSet{
			MinPrice:         10,
			MaxPrice:         60,
			MinReviews:       100,
			MinRating:        4.0,
			MaxSalesRank:     150000,
			MarkupMultiplier: 1.5,
		},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.BatchInterval < 0 {
		return fmt.Errorf("batch interval cannot be negative")
	}
	if c.EnrichTimeout <= 0 {
		return fmt.Errorf("enrichment timeout must be positive")
	}
	if c.EnrichBaseURL != "" {
		parsed, err := url.Parse(c.EnrichBaseURL)
		if err != nil {
			return fmt.Errorf("invalid enrichment base URL: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("enrichment base URL must include a host")
		}
	}
	if c.CatalogTTL < 0 {
		return fmt.Errorf("catalog TTL cannot be negative")
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rule set: %w", err)
	}
	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvFloat reads a float environment override.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
