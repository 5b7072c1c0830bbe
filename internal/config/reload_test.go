// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: "+dir+"\nscan:\n  hint_timeout: 15s\n")
	loader := NewLoader(path, "").WithEnv(nil)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	var got ChangeSummary
	h.OnReload(func(_, _ AppConfig, s ChangeSummary) { got = s })

	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\nscan:\n  hint_timeout: 40s\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, 40*time.Second, h.Get().Scan.HintTimeout)
	assert.Equal(t, []string{"scan.hint_timeout"}, got.ChangedFields)
	assert.False(t, got.RestartRequired)
}

func TestHolder_ReloadKeepsOldOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: "+dir+"\n")
	loader := NewLoader(path, "").WithEnv(nil)
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("flavor: nope\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "off", h.Get().Flavor)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: "+dir+"\n")
	loader := NewLoader(path, "").WithEnv(nil)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	h.debounce = 10 * time.Millisecond
	reloaded := make(chan AppConfig, 4)
	h.OnReload(func(_, next AppConfig, _ ChangeSummary) { reloaded <- next })

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.Wait()
	}()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\nlog:\n  level: debug\n"), 0o600))

	select {
	case next := <-reloaded:
		assert.Equal(t, "debug", next.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "").WithEnv(nil))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Wait()
}
