package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"laneCA/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.log")
	require.NoError(t, InitLog(path))

	WriteLog("hello lane")
	WriteLogf("tick %d", 42)
	CloseLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello lane")
	assert.Contains(t, string(data), "tick 42")
}

func TestLogSimParameters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer CloseLog()

	cfg, err := config.Parse([]byte(`{"lanes": [{"length": 120, "circular": true}]}`))
	require.NoError(t, err)

	LogSimParameters(cfg)
	assert.Contains(t, buf.String(), "Lane 0: length 120.0, circular true")
	assert.Contains(t, buf.String(), "Spawn: disabled")
}

func TestConvertTimeStepToTime(t *testing.T) {
	assert.Equal(t, 450*time.Second, ConvertTimeStepToTime(900, 0.5))
	assert.Equal(t, time.Duration(0), ConvertTimeStepToTime(0, 1))
}
