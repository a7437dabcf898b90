package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Merge(t *testing.T) {
	t.Run("SNIPMERGE_ANCHOR_THRESHOLD sets threshold", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNIPMERGE_ANCHOR_THRESHOLD", "0.9")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, 0.9, cfg.Merge.AnchorThreshold)
	})

	t.Run("invalid threshold is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNIPMERGE_ANCHOR_THRESHOLD", "high")

		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})
}

func TestEnvOverrides_Imports(t *testing.T) {
	t.Run("booleans", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNIPMERGE_PRESERVE_IMPORTS", "true")
		t.Setenv("SNIPMERGE_CORRECT_IMPORTS", "1")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.True(t, cfg.Imports.Preserve)
		assert.True(t, cfg.Imports.CorrectPaths)
	})

	t.Run("unparseable boolean is false", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNIPMERGE_PRESERVE_IMPORTS", "yes please")

		cfg := DefaultConfig()
		cfg.Imports.Preserve = true
		require.NoError(t, cfg.applyEnvOverrides())
		assert.False(t, cfg.Imports.Preserve)
	})

	t.Run("SNIPMERGE_PROJECT_PATH", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNIPMERGE_PROJECT_PATH", "/srv/app")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "/srv/app", cfg.Imports.ProjectRoot)
	})
}

func TestEnvOverrides_DiffURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNIPMERGE_DIFF_URL", "http://diff.internal:9000")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "http://diff.internal:9000", cfg.MissingPlaceholders.BaseURL)
	assert.Equal(t, "http", cfg.MissingPlaceholders.Oracle)
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNIPMERGE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	var empty LoggingConfig
	assert.True(t, empty.IsCategoryEnabled("merge"))

	cfg := LoggingConfig{Categories: map[string]bool{"oracle": false, "merge": true}}
	assert.False(t, cfg.IsCategoryEnabled("oracle"))
	assert.True(t, cfg.IsCategoryEnabled("merge"))
	assert.True(t, cfg.IsCategoryEnabled("splice"))
}
