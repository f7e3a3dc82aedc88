package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix        = "QUEUECORE"
	configFileEnvVar = "QUEUECORE_CONFIG"

	appNameKey     = "app_name"
	envKey         = "env"
	baseURLKey     = "base_url"
	httpTimeoutKey = "http.timeout"
	storePathKey   = "store.path"
	logLevelKey    = "log.level"
	logFormatKey   = "log.format"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Queue Core")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(baseURLKey, "http://localhost:8000")
	v.SetDefault(httpTimeoutKey, 10*time.Second)
	v.SetDefault(storePathKey, "./data/session.db")
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logFormatKey, "console")

	v.SetDefault(serverPortKey, "8000")
	v.SetDefault(serverJWTSecretKey, "super-secret-key")
	v.SetDefault(serverAccessExpiryKey, 30*time.Minute)
	v.SetDefault(serverAllowedOriginsKey, []string{"http://localhost:5173"})
}

func (c mainConfig) GetAppName() string {
	return c.v.GetString(appNameKey)
}

func (c mainConfig) GetEnv() string {
	env := strings.ToUpper(strings.TrimSpace(c.v.GetString(envKey)))
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBaseURL returns the API root the client talks to, without a trailing slash.
func (c mainConfig) GetBaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.v.GetString(baseURLKey)), "/")
}

func (c mainConfig) GetHTTPTimeout() time.Duration {
	return c.v.GetDuration(httpTimeoutKey)
}

func (c mainConfig) GetStorePath() string {
	return c.v.GetString(storePathKey)
}

func (c mainConfig) GetLogLevel() string {
	return c.v.GetString(logLevelKey)
}

func (c mainConfig) GetLogFormat() string {
	return c.v.GetString(logFormatKey)
}

func (c mainConfig) String() string {
	return fmt.Sprintf("env=%s base_url=%s store=%s", c.GetEnv(), c.GetBaseURL(), c.GetStorePath())
}
