// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianKin/pkg/logging"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8085", cfg.Server.Addr())
	assert.Equal(t, "X-Account-ID", cfg.Auth.AccountHeader)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9000
  read_timeout: 3s
storage:
  in_memory: true
cache:
  max_accounts: 4
log:
  level: debug
  json: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, 4, cfg.Cache.MaxAccounts)
	assert.Equal(t, logging.LevelDebug, cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9000\n")
	t.Setenv("KIN_SERVER_PORT", "9100")
	t.Setenv("KIN_CACHE_TTL", "90s")
	t.Setenv("KIN_LOG_LEVEL", "warn")
	t.Setenv("KIN_STORAGE_PATH", "/tmp/kin-env")
	t.Setenv("KIN_TELEMETRY_METRIC_EXPORTER", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, logging.LevelWarn, cfg.Log.Level)
	assert.Equal(t, "/tmp/kin-env", cfg.Storage.Path)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "server: [\n"))
		assert.Error(t, err)
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("KIN_SERVER_PORT", "eighty")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"zero timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "ReadTimeout"},
		{"discard ratio", func(c *Config) { c.Storage.GCDiscardRatio = 1.5 }, "GCDiscardRatio"},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"required auth without secret", func(c *Config) { c.Auth.Required = true }, "jwt_secret"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least"},
		{"empty account header", func(c *Config) { c.Auth.AccountHeader = "" }, "AccountHeader"},
		{"telemetry exporter", func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }, "zipkin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("in-memory storage needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Path = ""
		cfg.Storage.InMemory = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kin.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "level: info"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path))
}
