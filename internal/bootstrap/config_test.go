package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupDefaults(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, ArchiveNone, cfg.ArchiveBackend)
	assert.Equal(t, 19, cfg.DefaultBoardSize)
	assert.Equal(t, []int{9, 13, 19}, cfg.AllowedBoardSizes)
	assert.Equal(t, 24*time.Hour, cfg.LiveGameTTL)
}

func TestSetupReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SERVER_PORT=9000\nARCHIVE_BACKEND=postgres\nALLOWED_BOARD_SIZES=9,19\nLOCAL_CORS=true\nLIVE_GAME_TTL=2h\n",
	), 0o600))

	cfg, err := Setup(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, ArchivePostgres, cfg.ArchiveBackend)
	assert.Equal(t, []int{9, 19}, cfg.AllowedBoardSizes)
	assert.True(t, cfg.IsLocalCors)
	assert.Equal(t, 2*time.Hour, cfg.LiveGameTTL)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9000\n"), 0o600))
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := Setup(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.ServerPort)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger("nonsense", "json")
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}
