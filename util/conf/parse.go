package conf

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lambda-feedback/watchdeck/util/cliflags"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// DefaultConfig maps flat, dot-delimited config keys to default values.
type DefaultConfig = map[string]any

type ParseOptions struct {
	// Cli is the cli.Context from urfave/cli
	Cli *cli.Context

	// CliMap is a map of cli flag names to config keys
	CliMap map[string]string

	// Defaults is a map of default values
	Defaults DefaultConfig

	// EnvPrefix is the prefix for env vars
	EnvPrefix string

	// EnvFile is an optional dotenv file, read with the same prefix
	// rules as the environment. The environment takes precedence.
	EnvFile string

	// FileName is the name of the json configuration file to load
	FileName string

	// Log is the logger to use
	Log *zap.Logger
}

// Parse loads the config in order of increasing precedence: defaults,
// config file, env file, env vars, cli flags.
func Parse[C any](opt ParseOptions) (C, error) {
	var config C

	var log *zap.Logger
	if opt.Log != nil {
		log = opt.Log
	} else {
		log = zap.NewNop()
	}

	k := koanf.New(".")

	if opt.Defaults != nil {
		if err := k.Load(confmap.Provider(opt.Defaults, "."), nil); err != nil {
			return config, fmt.Errorf("failed to load defaults: %w", err)
		}
	}

	if opt.FileName != "" {
		if err := k.Load(file.Provider(opt.FileName), json.Parser()); err != nil {
			log.Error("error parsing file",
				zap.Error(err),
				zap.String("file", opt.FileName),
			)
			return config, fmt.Errorf("failed to load config file %s: %w", opt.FileName, err)
		}
	}

	if opt.EnvFile != "" {
		values, err := loadEnvFile(opt.EnvFile, opt.EnvPrefix)
		if err != nil {
			log.Error("error parsing env file",
				zap.Error(err),
				zap.String("file", opt.EnvFile),
			)
			return config, err
		}

		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return config, fmt.Errorf("failed to load env file %s: %w", opt.EnvFile, err)
		}
	}

	transformPrefixedEnv := func(s string) string {
		return transformEnv(s, opt.EnvPrefix)
	}

	if err := k.Load(env.Provider(opt.EnvPrefix, ".", transformPrefixedEnv), nil); err != nil {
		log.Error("error parsing env vars", zap.Error(err))
		return config, err
	}

	if opt.Cli != nil {
		transformFlag := func(s string) string {
			if opt.CliMap != nil {
				if name, ok := opt.CliMap[s]; ok {
					return name
				}
			}

			// replace - with _
			return strings.ReplaceAll(strings.ToLower(s), "-", "_")
		}

		if err := k.Load(cliflags.Provider(opt.Cli, ".", transformFlag), nil); err != nil {
			log.Error("error parsing cli flags", zap.Error(err))
			return config, err
		}
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "conf"}); err != nil {
		log.Error("error unmarshalling config", zap.Error(err))
		return config, err
	}

	return config, nil
}

// loadEnvFile reads a dotenv file and keeps the variables carrying
// prefix, keyed the same way as real env vars.
func loadEnvFile(path, prefix string) (map[string]any, error) {
	raw := koanf.New(".")
	if err := raw.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	values := make(map[string]any)
	for key, val := range raw.All() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		values[transformEnv(key, prefix)] = val
	}

	return values, nil
}

// transformEnv maps WATCHDECK_WORKER__STOP__GRACE to worker.stop.grace
// for prefix WATCHDECK_. Nesting is expressed with a double underscore.
func transformEnv(s, prefix string) string {
	s = strings.TrimPrefix(s, prefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
