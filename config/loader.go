package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file operations for the loader (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderOptions holds dependencies and optional file overrides.
type LoaderOptions struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderOptions)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lo *LoaderOptions) { lo.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lo *LoaderOptions) { lo.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lo *LoaderOptions) { lo.EnvFile = path }
}

// Load reads the configuration: YAML file first, then the .env file, then
// process environment variables, each layer overriding the previous one.
// Defaults are applied and the result validated before it is returned.
func Load(opts ...LoaderOption) (*Config, error) {
	var lo LoaderOptions
	for _, opt := range opts {
		opt(&lo)
	}
	if lo.FileSystem == nil {
		lo.FileSystem = &RealFileSystem{}
	}
	if lo.ConfigFile == "" {
		lo.ConfigFile = findFirst(lo.FileSystem, "./config.yml", "./config/config.yml", "../config.yml")
	}
	if lo.EnvFile == "" {
		lo.EnvFile = findFirst(lo.FileSystem, "./.env", "../.env")
	}

	v := viper.New()

	if lo.ConfigFile != "" && lo.FileSystem.Exists(lo.ConfigFile) {
		v.SetConfigFile(lo.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", lo.ConfigFile, err)
		}
	}

	if lo.EnvFile != "" && lo.FileSystem.Exists(lo.EnvFile) {
		if err := lo.FileSystem.LoadEnv(lo.EnvFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", lo.EnvFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnvVariants(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findFirst(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// bindEnvVariants maps UPPER_CASE_WITH_UNDERSCORES environment variables
// onto viper's nested keys, e.g. TOKEN_SECRET becomes token.secret and
// TOKEN_ACCESS_TOKEN_TTL becomes token.access_token_ttl.
func bindEnvVariants(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		for _, variant := range envKeyVariants(pair[0]) {
			v.Set(variant, pair[1])
		}
	}
}

// envKeyVariants generates the nested key spellings an env var can bind to.
// Every split point between section prefix and field name is tried, since
// field names themselves contain underscores.
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}
	variants := make([]string, 0, len(parts))
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
