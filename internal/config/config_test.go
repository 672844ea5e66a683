package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATA_DIR", "CACHE_DIR", "LOG_LEVEL", "ARCHIVE_BASE_URL", "MMSVIEWER_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	assert.Equal(t, 8050, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDirectory)
	assert.Equal(t, "mms_data", cfg.Storage.CacheName)
	assert.Equal(t, 10000, cfg.Plot.ApproxNumPoints)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	require.Len(t, cfg.Events.Startup, 1)
	ev := cfg.Events.Startup[0]
	assert.Equal(t, "2018-03-13", ev.Day)
	assert.Equal(t, "fgm", ev.Instrument)
	assert.Equal(t, "srvy", ev.DataRate)
	assert.Equal(t, 1, ev.Probe)

	// the written file loads back to the same values
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := `
server:
  port: 9000
archive:
  requests_per_minute: 30
events:
  startup:
    - day: 2018-03-14
      instrument: fgm
      data_rate: survey
      probe: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.Equal(t, 30, cfg.Archive.RequestsPerMinute)
	assert.Equal(t, "l2", cfg.Archive.DataLevel)
	require.Len(t, cfg.Events.Startup, 1)
	assert.Equal(t, "2018-03-14", cfg.Events.Startup[0].Day)
	assert.Equal(t, 2, cfg.Events.Startup[0].Probe)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"port out of range":  "server:\n  port: 70000\n",
		"unknown log level":  "logging:\n  level: verbose\n",
		"bad probe":          "events:\n  startup:\n    - day: 2018-03-13\n      instrument: fgm\n      probe: 7\n",
		"missing instrument": "events:\n  startup:\n    - day: 2018-03-13\n",
		"bad url":            "archive:\n  file_info_url: ftp://example.org/\n",
		"not yaml":           "server: [1, 2\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("DATA_DIR", "/srv/mms")
	t.Setenv("CACHE_DIR", "cdf_cache")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARCHIVE_BASE_URL", "http://mirror.local/api/v1")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/srv/mms", cfg.Storage.DataDirectory)
	assert.Equal(t, "cdf_cache", cfg.Storage.CacheName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://mirror.local/api/v1/file_info/", cfg.Archive.FileInfoURL)
	assert.Equal(t, "http://mirror.local/api/v1/download/", cfg.Archive.DownloadURL)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("MMSVIEWER_CONFIG", "/etc/mmsviewer.yaml")
	assert.Equal(t, "/etc/mmsviewer.yaml", DefaultPath())

	t.Setenv("MMSVIEWER_CONFIG", "")
	assert.Equal(t, FileName, filepath.Base(DefaultPath()))
}

func TestHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:8050", cfg.GetServerAddr())
	assert.Equal(t, time.Duration(0), cfg.ArchiveTimeout())
	cfg.Archive.TimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, cfg.ArchiveTimeout())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(dir, "data")
	cfg.Logging.File = filepath.Join(dir, "logs", "viewer.log")

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{"data", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestValidateDocument_UnquotedDates(t *testing.T) {
	assert.NoError(t, validateDocument([]byte("events:\n  startup:\n    - day: 2018-03-14\n      instrument: fgm\n")))
	assert.NoError(t, validateDocument([]byte("events:\n  startup:\n    - day: \"2018-03-14\"\n      instrument: fgm\n")))

	// a full timestamp is still not a day
	err := validateDocument([]byte("events:\n  startup:\n    - day: 2018-03-14T10:00:00Z\n      instrument: fgm\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "day")
}
