// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package config loads kin server and CLI settings.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// KIN_* environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianKin/pkg/logging"
	"github.com/AleutianAI/AleutianKin/services/kinship/telemetry"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KIN_"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete kin configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Storage   StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	Cache     CacheConfig      `yaml:"cache" envPrefix:"CACHE_"`
	Auth      AuthConfig       `yaml:"auth" envPrefix:"AUTH_"`
	RateLimit RateLimitConfig  `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Log       LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Telemetry telemetry.Config `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
	Debug           bool          `yaml:"debug" env:"DEBUG"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	// MaxBodyBytes caps request bodies, imports included.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" validate:"gt=0"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig configures the snapshot database.
type StorageConfig struct {
	Path           string        `yaml:"path" env:"PATH"`
	InMemory       bool          `yaml:"in_memory" env:"IN_MEMORY"`
	SyncWrites     bool          `yaml:"sync_writes" env:"SYNC_WRITES"`
	GCInterval     time.Duration `yaml:"gc_interval" env:"GC_INTERVAL" validate:"gte=0"`
	GCDiscardRatio float64       `yaml:"gc_discard_ratio" env:"GC_DISCARD_RATIO" validate:"gte=0,lte=1"`
}

// CacheConfig bounds the in-memory account graphs.
type CacheConfig struct {
	MaxAccounts int           `yaml:"max_accounts" env:"MAX_ACCOUNTS" validate:"gte=0"`
	TTL         time.Duration `yaml:"ttl" env:"TTL" validate:"gte=0"`
}

// AuthConfig selects how requests are bound to accounts.
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. The token subject names the
	// account.
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`

	// AccountHeader names the account when no bearer token is sent.
	AccountHeader string `yaml:"account_header" env:"ACCOUNT_HEADER" validate:"required"`

	// Required rejects requests without a valid bearer token.
	Required bool `yaml:"required" env:"REQUIRED"`
}

// RateLimitConfig throttles each account. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE" validate:"gte=0"`
	Burst             int `yaml:"burst" env:"BURST" validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level logging.Level `yaml:"level" env:"LEVEL"`
	JSON  bool          `yaml:"json" env:"JSON"`
	Dir   string        `yaml:"dir" env:"DIR"`
}

// minSecretLen is the shortest accepted HS256 secret.
const minSecretLen = 32

// Default returns the built-in configuration.
func Default() Config {
	tel := telemetry.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8085,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Storage: StorageConfig{
			Path:           DefaultDataDir(),
			SyncWrites:     true,
			GCInterval:     5 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Cache: CacheConfig{
			MaxAccounts: 128,
			TTL:         30 * time.Minute,
		},
		Auth: AuthConfig{
			AccountHeader: "X-Account-ID",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
			Burst:             50,
		},
		Log: LogConfig{
			Level: logging.LevelInfo,
		},
		Telemetry: tel,
	}
}

// DefaultDataDir is ~/.aleutian/kin/data, or ./kin-data when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kin-data"
	}
	return filepath.Join(home, ".aleutian", "kin", "data")
}

// DefaultPath is where the CLI looks for a config file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kin.yaml"
	}
	return filepath.Join(home, ".aleutian", "kin", "kin.yaml")
}

// Load builds the configuration.
//
// Description:
//
//	Starts from Default, overlays the YAML file at path when path is
//	non-empty, then applies KIN_* environment variables. A missing file
//	at an explicitly given path is an error.
//
// Inputs:
//
//	path - YAML file to read. Empty skips the file layer.
//
// Outputs:
//
//	Config - The validated configuration.
//	error - Read, parse or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOptional is Load for the CLI's default path: a missing file there
// is not an error.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Load("")
	}
	return Load(path)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(msgs...))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required unless storage.in_memory is set", ErrInvalidConfig)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.required needs auth.jwt_secret", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("%w: auth.jwt_secret must be at least %d bytes", ErrInvalidConfig, minSecretLen)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
