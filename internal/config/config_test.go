package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() Config {
	cfg := Default()
	cfg.Device = "/dev/input/by-id/usb-Logitech_Mouse-event-mouse"
	cfg.Left = "BTN_SIDE"
	cfg.Right = "276"
	cfg.LockUnlock = "BTN_MIDDLE"
	cfg.Grab = true
	cfg.CooldownPressRelease = 5
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, CommandRun, cfg.Command)
	assert.Equal(t, uint64(DefaultCooldownMS), cfg.CooldownMS)
	assert.Zero(t, cfg.CooldownPressRelease)
}

func TestSaveLoadAllFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run.json", "run.yaml", "run.yml", "run.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			require.NoError(t, Save(path, sampleConfig()))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, sampleConfig(), loaded)

			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: /dev/input/event5\nleft: BTN_SIDE\nhold: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, cfg.Command)
	assert.Equal(t, uint64(DefaultCooldownMS), cfg.CooldownMS)
	assert.True(t, cfg.Hold)
}

func TestLoadTOMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.toml")
	doc := "command = \"run-legacy\"\ndevice = \"/dev/input/mouse0\"\ncooldown_ms = 40\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CommandRunLegacy, cfg.Command)
	assert.Equal(t, uint64(40), cfg.CooldownMS)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"command":"run","cooldown_ms":0}`), 0o600))
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device is empty")
	assert.Contains(t, err.Error(), "cooldown_ms must be > 0")
	assert.Contains(t, err.Error(), "at least one of left, middle or right")

	unknown := filepath.Join(dir, "run.ini")
	require.NoError(t, os.WriteFile(unknown, []byte("x"), 0o600))
	_, err = Load(unknown)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestValidateLegacy(t *testing.T) {
	cfg := Default()
	cfg.Command = CommandRunLegacy
	cfg.Device = "/dev/input/mouse0"
	require.NoError(t, cfg.Validate())

	cfg.Left = "BTN_LEFT"
	cfg.Grab = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed bindings")
	assert.Contains(t, err.Error(), "neither hold nor grab")

	cfg = sampleConfig()
	cfg.Command = "walk"
	assert.ErrorContains(t, cfg.Validate(), "unknown command")
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theclicker", "last-run.json")

	cached, err := LoadCache(path)
	require.NoError(t, err)
	assert.Nil(t, cached)

	require.NoError(t, Save(path, sampleConfig()))
	cached, err = LoadCache(path)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, sampleConfig(), *cached)

	require.NoError(t, ClearCache(path))
	require.NoError(t, ClearCache(path))
	cached, err = LoadCache(path)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCachePath(t *testing.T) {
	assert.Equal(t, "last-run.json", filepath.Base(CachePath()))
	assert.Equal(t, "theclicker", filepath.Base(filepath.Dir(CachePath())))
}
