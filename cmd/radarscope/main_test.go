package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	opts := Opts{
		Config: "non-existent-config.yml",
	}

	err := run(ctx, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "invalid-config-*.yml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	// write invalid yaml
	_, err = tmpFile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	tmpFile.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	opts := Opts{
		Config: tmpFile.Name(),
	}

	err = run(ctx, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestRun_StartStop(t *testing.T) {
	// remote serving an empty autoindex, the harvest loop has nothing to do
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="../">../</a></body></html>`)
	}))
	defer remote.Close()

	// find free port for the http server
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	tmpDir := t.TempDir()
	configContent := fmt.Sprintf(`
server:
  enabled: true
  listen: 127.0.0.1:%d

sources:
  radar_url: %s/composites/

storage:
  radar_data_dir: %[3]s/radar_data
  radar_output_dir: %[3]s/output
  forecast_data_dir: %[3]s/radar_data_forecast
  forecast_output_dir: %[3]s/output_forecast
  extended_output_dir: %[3]s/output_extended

convert:
  command: /bin/true
`, port, remote.URL, tmpDir)

	configPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- run(ctx, Opts{Config: configPath})
	}()

	// wait for server to start
	time.Sleep(500 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(body))

	// directories created from config
	assert.DirExists(t, filepath.Join(tmpDir, "radar_data"))
	assert.DirExists(t, filepath.Join(tmpDir, "output"))

	// shutdown
	cancel()

	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Error("shutdown timeout")
	}
}

func TestSetupLog(t *testing.T) {
	t.Run("debug mode enabled", func(t *testing.T) {
		setupLog(true, false)
	})

	t.Run("debug mode disabled", func(t *testing.T) {
		setupLog(false, false)
	})

	t.Run("no color mode", func(t *testing.T) {
		setupLog(false, true)
	})

	t.Run("with secrets", func(t *testing.T) {
		setupLog(true, false, "secret1", "secret2")
	})
}
