package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-studio-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "studio.log")
	closeLog, err := logging.Setup(logging.Options{Level: "debug", Env: "PROD", File: file})
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Str("user_id", "u-1").Msg("logged in")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), `"user_id":"u-1"`)
	require.Contains(t, string(data), `"message":"logged in"`)
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	closeLog, err := logging.Setup(logging.Options{Level: "chatty", Env: "DEV"})
	require.NoError(t, err)
	require.NoError(t, closeLog())
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
