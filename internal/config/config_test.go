package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, SourceLoopback, cfg.Source)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 10*time.Second, cfg.JoinTimeout)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers)
	assert.True(t, cfg.Audio)
	assert.True(t, cfg.Video)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeYAML(t, `
mode: debug
port: 9090
source: signal
server_url: ws://voice.local/api/ws/signal
ping_period: 5s
video_codec: h264
loopback_peers: [alice, bob]
`)
	t.Setenv("QUICKSTART_PORT", "7070")
	t.Setenv("QUICKSTART_AUDIO", "false")

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, SourceSignal, cfg.Source)
	assert.Equal(t, "ws://voice.local/api/ws/signal", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.PingPeriod)
	assert.Equal(t, "h264", cfg.VideoCodec)
	assert.Equal(t, []string{"alice", "bob"}, cfg.LoopbackPeers)
	assert.False(t, cfg.Audio)
}

func TestLoad_UnknownSource(t *testing.T) {
	_, err := load(writeYAML(t, "source: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "carrier-pigeon")
}
