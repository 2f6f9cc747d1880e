package obslog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()

	cfg := Config{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	require.NoError(t, Init(cfg))

	_, err := os.Stat(tempDir)
	require.NoError(t, err)

	Info("test info")
	Warn("test warn")
	Debug("test debug")
}

func TestInitDefaultsOnBadLevel(t *testing.T) {
	tempDir := t.TempDir()
	cfg := Config{Level: "not-a-level", LogDir: tempDir}
	require.NoError(t, Init(cfg))
}
