package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"chunk_size": 8192,
		"tmp_dir":    "/json/tmp",
		"debug":      true,
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := &Config{LogLevel: "info"}
		require.NoError(t, parseJson(cfg, []string{"decrypt", "-c", path}))

		assert.Equal(t, Config{ChunkSize: 8192, TempDir: "/json/tmp", LogLevel: "info", Debug: true}, *cfg)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{ChunkSize: 1024, TempDir: "defaults"}
		require.NoError(t, parseJson(cfg, []string{"encrypt", "a.txt"}))

		assert.Equal(t, Config{ChunkSize: 1024, TempDir: "defaults"}, *cfg)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		err := parseJson(&Config{}, []string{"--config", bad})
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("missing file → error", func(t *testing.T) {
		err := parseJson(&Config{}, []string{"--config=" + filepath.Join(t.TempDir(), "none.json")})
		require.ErrorIs(t, err, common.ErrIO)
	})
}
