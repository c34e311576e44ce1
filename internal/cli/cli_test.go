package cli

import (
	"bytes"
	"context"
	"testing"

	"placement/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyServeFlags(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"
	cfg.Importer.Dir = "/srv/drop"

	require.NoError(t, serveCmd.ParseFlags([]string{"--port", "9090", "--tls-mode", "server", "--watch", ""}))
	applyServeFlags(serveCmd, cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset flags keep the config value")
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
	assert.Empty(t, cfg.Importer.Dir, "an explicit empty --watch disables the importer")
}

func TestBreakdownArgs(t *testing.T) {
	assert.Equal(t, []string{"course", "department", "year"}, breakdownArgs())
}

func TestContextHelpers(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)
	_, err = getLoggerFromContext(context.Background())
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), configKey, &config.Config{})
	cfg, err := getConfigFromContext(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "placement version dev")
	assert.Contains(t, out.String(), "Git commit: unknown")
}
