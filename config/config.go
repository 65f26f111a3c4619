package config

import (
	"fmt"

	"github.com/kbukum/authkit/flow"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/password"
	"github.com/kbukum/authkit/token"
)

// Config is the root configuration composed from the per-package sections.
type Config struct {
	// Service is the service name stamped on log lines.
	Service string `mapstructure:"service"`

	// Logger configures structured logging.
	Logger logger.Config `mapstructure:"logger"`

	// Password configures the credential hasher.
	Password password.Config `mapstructure:"password"`

	// Token configures signing, lifetimes, and leeway.
	Token token.Config `mapstructure:"token"`

	// Providers configures the external authorization providers, if any.
	Providers []flow.ProviderConfig `mapstructure:"providers"`

	// Permissions maps roles to permission patterns for the guard.
	Permissions map[string][]string `mapstructure:"permissions"`

	// SuperuserRole bypasses authorization checks (default: "admin").
	SuperuserRole string `mapstructure:"superuser_role"`

	// Store selects the deny-list/state backend: "memory" or "bolt".
	Store StoreConfig `mapstructure:"store"`
}

// StoreConfig selects and configures the KV backend.
type StoreConfig struct {
	// Backend is "memory" (default) or "bolt".
	Backend string `mapstructure:"backend"`

	// Path is the database file for the bolt backend.
	Path string `mapstructure:"path"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Service == "" {
		c.Service = "authkit"
	}
	if c.SuperuserRole == "" {
		c.SuperuserRole = "admin"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	c.Logger.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Token.ApplyDefaults()
}

// Validate checks the composed configuration.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Password.Validate(); err != nil {
		return err
	}
	if err := c.Token.Validate(); err != nil {
		return err
	}
	for i := range c.Providers {
		if err := c.Providers[i].Validate(); err != nil {
			return err
		}
	}
	switch c.Store.Backend {
	case "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}
