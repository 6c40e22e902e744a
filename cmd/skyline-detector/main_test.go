package main

import (
	"os"
	"path/filepath"
	"testing"

	"skyline-detector/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	for _, key := range []string{"SKYLINE_DATA_DIR", "SKYLINE_OUTPUT_DIR", "SKYLINE_SUCCESS_THRESHOLD", "SKYLINE_GAP_POLICY", "LOG_LEVEL", "DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "skyline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\noutput_dir: /file/out\nsuccess_threshold: 80\n"), 0o644))

	opts := &options{cfg: config.Default()}
	cmd := bindCommand(opts)
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--env-file", filepath.Join(dir, "absent.env"),
		"--data", "/from/flag",
		"--gap-policy", "sky",
	}))

	cfg, err := resolveConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, "/file/out", cfg.OutputDir)
	assert.Equal(t, 80.0, cfg.SuccessThreshold)
	assert.Equal(t, "sky", cfg.Night.GapPolicy)
}

func TestResolveConfig_RejectsInvalidFlag(t *testing.T) {
	opts := &options{cfg: config.Default()}
	cmd := bindCommand(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--success-threshold", "150", "--env-file", ""}))

	_, err := resolveConfig(cmd, opts)
	assert.Error(t, err)
}
