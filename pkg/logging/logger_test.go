// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" warn ":  LevelWarn,
		"Error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevel_Text(t *testing.T) {
	var l Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, LevelWarn, l)

	text, err := LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(text))
	assert.Equal(t, "unknown", Level(99).String())
}

func TestNew_Console(t *testing.T) {
	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: LevelWarn, Output: &buf})
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "account", "smith")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "account=smith")
	})

	t.Run("json with service", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{JSON: true, Service: "kin", Output: &buf})
		require.NoError(t, err)

		logger.Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "kin", record["service"])
	})

	t.Run("quiet drops console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Quiet: true, Output: &buf})
		require.NoError(t, err)
		logger.Error("nothing")
		assert.Empty(t, buf.String())
	})
}

func TestNew_FileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := New(Config{Service: "kin-test", LogDir: dir, Output: &console})
	require.NoError(t, err)
	logger.Info("persisted", "count", 3)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "kin-test_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"persisted"`)
	assert.Contains(t, string(data), `"count":3`)
	assert.Contains(t, console.String(), "persisted")
}

func TestNew_UnwritableLogDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	_, err := New(Config{LogDir: filepath.Join(file, "logs")})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Info("dropped") })
}
