package config

import (
	"maps"

	"github.com/lambda-feedback/watchdeck/handler"
	"github.com/lambda-feedback/watchdeck/internal/picker"
	"github.com/lambda-feedback/watchdeck/internal/reload"
	"github.com/lambda-feedback/watchdeck/internal/server"
	"github.com/lambda-feedback/watchdeck/internal/sidecar"
	"github.com/lambda-feedback/watchdeck/util/conf"
)

// EnvPrefix is the prefix of all environment variables read into the
// config, e.g. WATCHDECK_WORKER__CMD for worker.cmd.
const EnvPrefix = "WATCHDECK_"

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Sidecar configures the worker, its events and diagnostics
	Sidecar sidecar.Config `conf:"sidecar,squash"`

	// Picker configures the folder picker dialog
	Picker picker.Config `conf:"picker"`

	// Reload configures respawning the worker when its executable changes
	Reload reload.Config `conf:"reload"`

	// Http configures the http server of the serve command
	Http server.HttpConfig `conf:"http"`

	// Handler configures auth and rpc of the http surface
	Handler handler.Config `conf:"handler,squash"`
}

var DefaultConfig = merge(
	conf.DefaultConfig{
		"log_level":  "info",
		"log_format": "production",
	},
	conf.MergeDefaults("worker", conf.DefaultConfig{
		"cmd":          "watcher",
		"stop.grace":   "2s",
		"stop.timeout": "5s",
		"send.timeout": "5s",
	}),
	conf.MergeDefaults("events", conf.DefaultConfig{
		"buffer": 64,
	}),
	conf.MergeDefaults("diagnostics", conf.DefaultConfig{
		"history": 200,
		"sentry":  true,
	}),
	conf.MergeDefaults("reload", conf.DefaultConfig{
		"enabled":  false,
		"debounce": "500ms",
	}),
	conf.MergeDefaults("http", conf.DefaultConfig{
		"host": "localhost",
		"port": 7420,
		"h2c":  false,
	}),
)

func merge(configs ...conf.DefaultConfig) conf.DefaultConfig {
	merged := conf.DefaultConfig{}
	for _, c := range configs {
		maps.Copy(merged, c)
	}
	return merged
}
