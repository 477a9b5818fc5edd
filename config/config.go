/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package config loads logsplorer's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for unset fields.
const (
	DefaultAddress         = ":8080"
	DefaultHandle          = "/api/logsplorer"
	DefaultSessionCapacity = 64
	DefaultCacheCapacity   = 16
)

// Environment variables overriding configured values.
const (
	AddressEnv = "LOGSPLORER_ADDRESS"
	LogRootEnv = "LOGSPLORER_LOG_ROOT"
)

// Config configures a logsplorer server.
type Config struct {
	Address               string   `yaml:"address"`
	Handle                string   `yaml:"handle"`
	AllowedRequestOrigins []string `yaml:"allowed_request_origins"`
	// LogRoot is the directory query filenames are resolved within.
	LogRoot         string `yaml:"log_root"`
	SessionCapacity int    `yaml:"session_capacity"`
	CacheCapacity   int    `yaml:"cache_capacity"`
	// APIURL, if set, is a remote logsplorer API charts query instead of the
	// in-process engine.
	APIURL string `yaml:"api_url"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Handle == "" {
		cfg.Handle = DefaultHandle
	}
	if cfg.LogRoot == "" {
		cfg.LogRoot = "."
	}
	if cfg.SessionCapacity == 0 {
		cfg.SessionCapacity = DefaultSessionCapacity
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
}

// Validate returns an error if the receiver cannot configure a server.
func (cfg *Config) Validate() error {
	if cfg.SessionCapacity < 0 {
		return fmt.Errorf("session_capacity must be positive, got %d", cfg.SessionCapacity)
	}
	if cfg.CacheCapacity < 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", cfg.CacheCapacity)
	}
	if len(cfg.Handle) == 0 || cfg.Handle[0] != '/' {
		return fmt.Errorf("handle '%s' must begin with '/'", cfg.Handle)
	}
	if cfg.Handle == "/" || cfg.Handle == "/api/session/" {
		return fmt.Errorf("handle '%s' collides with the chart page", cfg.Handle)
	}
	return nil
}

// Parse parses a YAML configuration, filling unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML configuration at path and applies environment
// overrides.  An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("config '%s': %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides the receiver's fields from the environment.
func (cfg *Config) ApplyEnv() {
	if addr := os.Getenv(AddressEnv); addr != "" {
		cfg.Address = addr
	}
	if root := os.Getenv(LogRootEnv); root != "" {
		cfg.LogRoot = root
	}
}

// LoadEnv loads environment variables from the provided .env files, or from
// .env in the working directory if none are provided.  Missing files are not
// errors; variables already set are not overwritten.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file '%s': %w", filename, err)
		}
	}
	return nil
}
