// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package config handles SDK-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. For interactive use
(the domarctl CLI), an optional YAML profile file can pre-seed values before
environment variables are applied on top.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (transport, keystore) via constructors.
  - Zero Hidden State: No global variables are used to store config.

Precedence is profile file < environment, so an operator can always override a
saved profile with DOMARA_* variables.
*/
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// # Configuration Schema

// Config holds all runtime configuration for the Domara client.
//
// Defaults are applied after profile/environment merging (see applyDefaults)
// so that a profile value is never masked by a tag-level default.
type Config struct {

	// Backend endpoint
	BaseURL     string `env:"DOMARA_BASE_URL"    yaml:"base_url"`
	Environment string `env:"DOMARA_ENVIRONMENT" yaml:"environment"`
	Debug       bool   `env:"DOMARA_DEBUG"       yaml:"debug"`

	// KeystorePath is the filesystem location of the persisted key-value
	// store. Empty selects an in-memory store (no persistence across runs).
	KeystorePath string `env:"DOMARA_KEYSTORE_PATH" yaml:"keystore_path"`

	// KeystorePassphrase, when set, seals the file keystore at rest.
	KeystorePassphrase string `env:"DOMARA_KEYSTORE_PASSPHRASE" yaml:"-"`

	// RedisURL, when set, selects a Redis-backed keystore instead of the
	// file store. Used by server-side embedders of the SDK.
	RedisURL string `env:"DOMARA_REDIS_URL" yaml:"redis_url"`

	// Language is the preferred UI locale for localized messages. It seeds
	// the persisted preferredLanguage key on first run.
	Language string `env:"DOMARA_LANGUAGE" yaml:"language"`

	// Egress throttling overrides
	RateLimitRPS   float64 `env:"DOMARA_RATE_LIMIT_RPS"   yaml:"rate_limit_rps"`
	RateLimitBurst int     `env:"DOMARA_RATE_LIMIT_BURST" yaml:"rate_limit_burst"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	return LoadWithProfile("")
}

// LoadWithProfile reads an optional YAML profile file and then applies
// environment variables on top of it.
//
// # Parameters
//   - profilePath: Path to the YAML profile. A missing file is not an error.
//
// # Returns
//   - *Config: Merged, defaulted configuration.
//   - error: Unreadable profile, malformed environment, or missing base URL.
func LoadWithProfile(profilePath string) (*Config, error) {
	cfg := &Config{}

	if profilePath != "" {
		data, err := os.ReadFile(profilePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: invalid profile %s: %w", profilePath, err)
			}
		case os.IsNotExist(err):
			// Profile is optional; fall through to the environment.
		default:
			return nil, fmt.Errorf("config: failed to read profile %s: %w", profilePath, err)
		}
	}

	// Environment wins over the profile.
	overlay := &Config{}
	if err := env.Parse(overlay); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	merge(cfg, overlay)
	cfg.applyDefaults()

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("config: base URL is not set (profile or DOMARA_BASE_URL)")
	}

	return cfg, nil
}

// merge copies every non-zero field of overlay onto base.
func merge(base, overlay *Config) {
	if overlay.BaseURL != "" {
		base.BaseURL = overlay.BaseURL
	}
	if overlay.Environment != "" {
		base.Environment = overlay.Environment
	}
	if overlay.Debug {
		base.Debug = true
	}
	if overlay.KeystorePath != "" {
		base.KeystorePath = overlay.KeystorePath
	}
	if overlay.KeystorePassphrase != "" {
		base.KeystorePassphrase = overlay.KeystorePassphrase
	}
	if overlay.RedisURL != "" {
		base.RedisURL = overlay.RedisURL
	}
	if overlay.Language != "" {
		base.Language = overlay.Language
	}
	if overlay.RateLimitRPS != 0 {
		base.RateLimitRPS = overlay.RateLimitRPS
	}
	if overlay.RateLimitBurst != 0 {
		base.RateLimitBurst = overlay.RateLimitBurst
	}
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// IsDevelopment reports whether the client targets a development backend.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the client targets the production backend.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
