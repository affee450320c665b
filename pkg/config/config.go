// Package config provides TOML-backed configuration for the Snuggle
// compiler, in the manner of dingo's pkg/config.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FalliblePatternPolicy controls how the checker reacts to a fallible
// pattern declaration (spec §4.2: "currently unimplemented").
type FalliblePatternPolicy string

const (
	// FalliblePatternReject is the spec-mandated default: a fallible
	// pattern declaration is a typing error.
	FalliblePatternReject FalliblePatternPolicy = "reject"
	// FalliblePatternWarn still refuses to lower the pattern, but reports
	// it as a warning instead of aborting the checker pass. Useful while
	// iterating on a future implementation.
	FalliblePatternWarn FalliblePatternPolicy = "warn"
)

func (p FalliblePatternPolicy) IsValid() bool {
	switch p {
	case FalliblePatternReject, FalliblePatternWarn:
		return true
	default:
		return false
	}
}

// Config is the complete compiler configuration.
type Config struct {
	Checker CheckerConfig `toml:"checker"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Writer  WriterConfig  `toml:"writer"`
}

// CheckerConfig controls type-checker behavior.
type CheckerConfig struct {
	// FalliblePatternPolicy: see FalliblePatternPolicy above.
	FalliblePatternPolicy FalliblePatternPolicy `toml:"fallible_pattern_policy"`

	// StaticVirtualDisambiguation resolves spec §9's open question: when a
	// method-call/field-access receiver name names both a local binding
	// and a type, which wins. The source commits to the type (static)
	// interpretation; this field exists so the decision is visible in the
	// config. Validate accepts only "static-wins"; "local-wins" is not
	// implemented (see DESIGN.md).
	StaticVirtualDisambiguation string `toml:"static_virtual_disambiguation"`
}

// BridgeConfig controls the reflected-type bridge (spec §4.4).
type BridgeConfig struct {
	// AcknowledgeGenericsDefault: when true, a bridged class with type
	// parameters is accepted (erased) even without an explicit
	// SnuggleAcknowledgeGenerics annotation, with a warning instead of a
	// fatal bridge-construction error.
	AcknowledgeGenericsDefault bool `toml:"acknowledge_generics_default"`
}

// WriterConfig controls the class-file-shaped writer (§2/§4.5 of SPEC_FULL).
type WriterConfig struct {
	// DumpGoStub enables the diagnostic-only Go-syntax skeleton dump.
	DumpGoStub bool `toml:"dump_go_stub"`
}

// Default returns the compiler's default configuration.
func Default() *Config {
	return &Config{
		Checker: CheckerConfig{
			FalliblePatternPolicy:       FalliblePatternReject,
			StaticVirtualDisambiguation: "static-wins",
		},
		Bridge: BridgeConfig{
			AcknowledgeGenericsDefault: false,
		},
		Writer: WriterConfig{
			DumpGoStub: false,
		},
	}
}

// Load applies, in increasing precedence: built-in defaults, the user
// config at ~/.snuggle/config.toml, the project config at ./snuggle.toml,
// then overrides (typically parsed CLI flags). A missing config file at
// either location is not an error.
func Load(overrides *Config) (*Config, error) {
	cfg := Default()

	userPath := filepath.Join(os.Getenv("HOME"), ".snuggle", "config.toml")
	if err := loadFile(userPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if err := loadFile("snuggle.toml", cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		if overrides.Checker.FalliblePatternPolicy != "" {
			cfg.Checker.FalliblePatternPolicy = overrides.Checker.FalliblePatternPolicy
		}
		if overrides.Writer.DumpGoStub {
			cfg.Writer.DumpGoStub = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks that every field holds a recognized value.
func (c *Config) Validate() error {
	if !c.Checker.FalliblePatternPolicy.IsValid() {
		return fmt.Errorf("invalid checker.fallible_pattern_policy: %q", c.Checker.FalliblePatternPolicy)
	}
	if c.Checker.StaticVirtualDisambiguation != "static-wins" {
		return fmt.Errorf("invalid checker.static_virtual_disambiguation: %q (only \"static-wins\" is implemented)", c.Checker.StaticVirtualDisambiguation)
	}
	return nil
}
