package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeYAML(t, "server:\n  listen_addr: \":9100\"\n")

	cfg, err := Load(path, filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, 64*1024*1024, cfg.Transport.MaxFrameBytes)
	assert.Equal(t, 500, cfg.Client.HandshakeStabilizationMS)
	assert.Contains(t, cfg.Server.WelcomeMessage, "ようこそ")
}

func TestLoadEnvOverridesWinOverYAML(t *testing.T) {
	path := writeYAML(t, "server:\n  listen_addr: \":9100\"\n")
	t.Setenv("HAG_LISTEN_ADDR", ":9999")

	cfg, err := Load(path, filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}
