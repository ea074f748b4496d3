package main

import (
	"bufio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPos(t *testing.T) {
	pos := findPos(bufio.NewReader(strings.NewReader("ab\ncd\nef\n")), 4)
	assert.Equal(t, 2, pos.line)
	assert.Equal(t, 1, pos.pos)

	pos = findPos(bufio.NewReader(strings.NewReader("abc\n")), 1)
	assert.Equal(t, 1, pos.line)
	assert.Equal(t, 1, pos.pos)
}

func TestLoadConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "dog.ceo": { "baseUrl": "http://localhost:9000/api" },
  "server": { "listen": ":9999", "requireAuth": true },
  "debug": { "prettyJson": true }
}`), 0o644))
	t.Setenv("DOG_API_BASE_URL", "")
	t.Setenv("DOGIMAGES_LISTEN", "")
	t.Setenv("DOGIMAGES_DATABASE", "")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api", cfg.DogApi.BaseUrl)
	assert.Equal(t, 86400, cfg.DogApi.TTL, "Unset values keep their defaults")
	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.True(t, cfg.Server.RequireAuth)
	assert.True(t, cfg.Debug.PrettyJson)
	assert.Equal(t, dbFile, cfg.Database)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DOG_API_BASE_URL", "http://dogs.internal/api")
	t.Setenv("DOGIMAGES_LISTEN", "127.0.0.1:8000")
	t.Setenv("DOGIMAGES_DATABASE", "/tmp/dogs.db")

	cfg, err := loadConfig("")
	require.NoError(t, err, "Missing default config file falls back to defaults")
	assert.Equal(t, "http://dogs.internal/api", cfg.DogApi.BaseUrl)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Listen)
	assert.Equal(t, "/tmp/dogs.db", cfg.Database)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err, "Explicit config file must exist")

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"server\": {\n    \"listen\": \":1\",,\n  }\n}\n"), 0o644))
	_, err = loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Line: 3")
}
