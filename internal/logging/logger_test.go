package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForComponentFollowsLaterInit(t *testing.T) {
	log := ForComponent(CompRegistry)

	var buf bytes.Buffer
	InitWriter(&buf, "debug")
	t.Cleanup(Shutdown)

	log.Debug("registry_loaded", "count", 2)

	assert.Contains(t, buf.String(), "component=registry")
	assert.Contains(t, buf.String(), "registry_loaded")
	assert.Contains(t, buf.String(), "count=2")
}

func TestInitWithoutDirDiscards(t *testing.T) {
	require.NoError(t, Init(Config{}))
	t.Cleanup(Shutdown)

	assert.NotPanics(t, func() {
		ForComponent(CompRouter).Info("dropped")
	})
}

func TestInitWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Config{LogDir: dir, Level: "info"}))

	ForComponent(CompDaemon).Info("daemon_started", "pid", 7)
	Shutdown()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"daemon"`)
	assert.Contains(t, string(data), `"msg":"daemon_started"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warning").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}
