package application

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvedit/internal/config"
)

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: time.Second,
			RequestTimeout:  time.Second,
		},
		Upload:  config.UploadConfig{MaxFileSize: 1024, MaxConcurrent: 1, MaxWaitTime: time.Second, Timeout: time.Second},
		Session: config.SessionConfig{IdleTTL: time.Hour, SweepInterval: time.Minute, MaxSessions: 10, CookieName: "s"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestSetupEditLogging_File(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "edit.log")
	closeLog, err := setupEditLogging(EditOptions{LogFile: path, LogLevel: "info"})
	require.NoError(t, err)

	slog.Info("opened", "file", "people.csv")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "file=people.csv"))
}

func TestSetupEditLogging_BadPath(t *testing.T) {
	_, err := setupEditLogging(EditOptions{LogFile: filepath.Join(t.TempDir(), "missing", "edit.log")})
	assert.Error(t, err)
}
