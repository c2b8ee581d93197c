package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected *Config
		name     string
		args     []string
	}{
		{
			name: "Test1 OK",
			args: []string{"cmd", "-a", "http://backend:9090", "-d", "fleet.db", "-i", "10"},
			expected: &Config{
				ServerEndpointURL:   "http://backend:9090",
				DatabasePath:        "fleet.db",
				OnlineCheckInterval: 10 * time.Second,
			},
		},
		{
			name: "Test2 unknown flags ignored",
			args: []string{"cmd", "-d", "only.db", "-z", "junk"},
			expected: &Config{
				DatabasePath: "only.db",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			cfg := &Config{}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(cfg, tt.expected))
		})
	}
}
