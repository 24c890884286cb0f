package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvModel, "")
	path := filepath.Join(t.TempDir(), "settings.json")

	w, err := NewWatcher(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, Default(), w.Active())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	// Written by another process.
	require.NoError(t, os.WriteFile(path, []byte(`{"provider":"anthropic","api_key":"sk-file"}`), 0o600))
	require.Eventually(t, func() bool {
		return w.Active().APIKey == "sk-file"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, ProtocolAnthropic, w.Active().Protocol)

	// Atomic replacement through Save.
	require.NoError(t, Save(path, Provider{Provider: "openai", APIKey: "sk-saved"}))
	require.Eventually(t, func() bool {
		return w.Active().APIKey == "sk-saved"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_BadFileKeepsPrevious(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"sk-good"}`), 0o600))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()
	require.Equal(t, "sk-good", w.Active().APIKey)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	require.Error(t, w.Reload())
	assert.Equal(t, "sk-good", w.Active().APIKey)
}

func TestWatcher_Save(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := filepath.Join(t.TempDir(), "settings.json")
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Save(Provider{Provider: "claude", APIKey: "sk-1"}.Normalized()))
	assert.Equal(t, "sk-1", w.Active().APIKey)
	assert.Equal(t, ProtocolAnthropic, w.Active().Protocol)
	assert.Equal(t, path, w.Path())
}
