// Package config loads the authkit configuration from YAML, .env files, and
// the process environment, in that order of increasing precedence. Secrets
// (signing keys, provider client secrets) are expected from the environment,
// never from checked-in YAML.
package config
