package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return env, nil
}

// ResolveEnv returns the credential environment for this config:
// the process environment overlaid with the configured env_file.
func (c *Config) ResolveEnv() (map[string]string, error) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	if c.EnvFile != "" {
		fileEnv, err := LoadEnvFile(resolvePath(c.EnvFile, c.Dir))
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	return env, nil
}

// resolvePath resolves a possibly-relative path against the config directory
func resolvePath(path, configDir string) string {
	if filepath.IsAbs(path) || configDir == "" {
		return path
	}
	return filepath.Join(configDir, path)
}
