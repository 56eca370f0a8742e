package conf_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lambda-feedback/watchdeck/util/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopConfig struct {
	Grace time.Duration `conf:"grace"`
}

type workerConfig struct {
	Cmd  string     `conf:"cmd"`
	Stop stopConfig `conf:"stop"`
}

type testConfig struct {
	LogLevel string       `conf:"log_level"`
	Worker   workerConfig `conf:"worker"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestParse_Defaults(t *testing.T) {
	config, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults: conf.DefaultConfig{
			"log_level":         "info",
			"worker.cmd":        "watcher",
			"worker.stop.grace": "2s",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "watcher", config.Worker.Cmd)
	assert.Equal(t, 2*time.Second, config.Worker.Stop.Grace)
}

func TestParse_EnvOverridesFileAndEnvFile(t *testing.T) {
	configFile := writeFile(t, "config.json", `{"log_level":"warn","worker":{"cmd":"from-file"}}`)
	envFile := writeFile(t, ".env", "CONFTEST_WORKER__CMD=from-env-file\nCONFTEST_WORKER__STOP__GRACE=3s\nOTHER=ignored\n")

	t.Setenv("CONFTEST_LOG_LEVEL", "debug")

	config, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults:  conf.DefaultConfig{"log_level": "info"},
		EnvPrefix: "CONFTEST_",
		EnvFile:   envFile,
		FileName:  configFile,
	})

	require.NoError(t, err)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "from-env-file", config.Worker.Cmd)
	assert.Equal(t, 3*time.Second, config.Worker.Stop.Grace)
}

func TestParse_MissingConfigFile(t *testing.T) {
	_, err := conf.Parse[testConfig](conf.ParseOptions{
		FileName: filepath.Join(t.TempDir(), "missing.json"),
	})

	assert.Error(t, err)
}

func TestMergeDefaults(t *testing.T) {
	merged := conf.MergeDefaults("worker", conf.DefaultConfig{"cmd": "a"}, conf.DefaultConfig{"cwd": "/"})

	assert.Equal(t, conf.DefaultConfig{"worker.cmd": "a", "worker.cwd": "/"}, merged)
}
