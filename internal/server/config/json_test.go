package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

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
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr":                   ":9999",
		"database_dsn":                    "postgres://json",
		"secret_key":                      "json_secret",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, ":9999", cfg.EndpointAddr)
		assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
		assert.Equal(t, "json_secret", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	})

	t.Run("no config flag leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddr:                 ":1234",
			DatabaseDSN:                  "postgres://defaults",
			SecretKey:                    "key",
			AccessTokenValidityDuration:  2 * time.Minute,
			RefreshTokenValidityDuration: 4 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, ":1234", cfg.EndpointAddr)
		assert.Equal(t, "postgres://defaults", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 4*time.Minute, cfg.RefreshTokenValidityDuration)
	})

	t.Run("partial json keeps remaining fields", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"secret_key": "only_secret"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{EndpointAddr: ":1234", SecretKey: "old"}
		parseJson(cfg)

		assert.Equal(t, ":1234", cfg.EndpointAddr)
		assert.Equal(t, "only_secret", cfg.SecretKey)
	})
}
