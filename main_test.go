package main

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAvailablePortSkipsBusyPort(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()

	busy := l.Addr().(*net.TCPAddr).Port
	got, err := findAvailablePort(busy, 10)
	require.NoError(t, err)
	assert.NotEqual(t, busy, got)
	assert.Greater(t, got, busy)
}

func TestLoadConfigPortFlagOverridesEnv(t *testing.T) {
	for _, k := range []string{"NEXT_PUBLIC_BACKEND_URL", "BACKEND_URL", "BACKEND_TIMEOUT", "DATABASE_URL", "CORS_ORIGIN", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "0")

	flag := serveCmd.Flags().Lookup("port")
	require.NoError(t, serveCmd.Flags().Set("port", "9090"))
	t.Cleanup(func() {
		port = 0
		flag.Changed = false
	})

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "wellbeing v"))
}
