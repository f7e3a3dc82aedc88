package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is everything the client, the token store and the development
// server read at start up.
type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
	LogConfig
	ServerConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type ClientConfig interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
}

type StoreConfig interface {
	GetStorePath() string
}

type LogConfig interface {
	GetLogLevel() string
	GetLogFormat() string
}

type mainConfig struct {
	v *viper.Viper
}

var _ Config = mainConfig{}

// Load reads defaults, an optional config file named by QUEUECORE_CONFIG and
// QUEUECORE_* environment overrides.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(configFileEnvVar); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("queuecore")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return mainConfig{v: v}, nil
}

// New is Load for callers that only want defaults and environment values. A
// load failure is logged and the defaults are returned.
func New() Config {
	c, err := Load()
	if err != nil {
		log.Warn().Err(err).Msg("config load failed, using defaults")
		v := viper.New()
		setDefaults(v)
		return mainConfig{v: v}
	}
	return c
}
