package goSession

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envConfig is the flat environment view of Config.
type envConfig struct {
	APIBaseURL          string        `mapstructure:"API_BASE_URL"`
	APITimeout          time.Duration `mapstructure:"API_TIMEOUT"`
	TokenStore          string        `mapstructure:"TOKEN_STORE"`
	TokenStorePath      string        `mapstructure:"TOKEN_STORE_PATH"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPrefix         string        `mapstructure:"REDIS_PREFIX"`
	RedisTTL            time.Duration `mapstructure:"REDIS_TTL"`
	HealthCheckInterval time.Duration `mapstructure:"HEALTH_CHECK_INTERVAL"`
	MetricsEnabled      bool          `mapstructure:"METRICS_ENABLED"`
	AuditEnabled        bool          `mapstructure:"AUDIT_ENABLED"`
	PublicPaths         string        `mapstructure:"PUBLIC_PATHS"`
}

var envKeys = []string{
	"API_BASE_URL",
	"API_TIMEOUT",
	"TOKEN_STORE",
	"TOKEN_STORE_PATH",
	"REDIS_ADDR",
	"REDIS_PREFIX",
	"REDIS_TTL",
	"HEALTH_CHECK_INTERVAL",
	"METRICS_ENABLED",
	"AUDIT_ENABLED",
	"PUBLIC_PATHS",
}

// LoadConfig builds a Config from the defaults, an optional .env file in the
// working directory, and the process environment, in increasing precedence.
// The result is validated.
func LoadConfig() (Config, error) {
	return loadConfig(viper.New(), ".env")
}

// LoadConfigFile is LoadConfig with an explicit dotenv path. A missing file is
// not an error. An empty path reads the environment only, for callers that have
// already loaded their dotenv file into it.
func LoadConfigFile(path string) (Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, dotenv string) (Config, error) {
	base := defaultConfig()

	v.SetDefault("API_BASE_URL", base.API.BaseURL)
	v.SetDefault("API_TIMEOUT", base.API.Timeout)
	v.SetDefault("TOKEN_STORE", string(base.Storage.Kind))
	v.SetDefault("TOKEN_STORE_PATH", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PREFIX", base.Storage.RedisPrefix)
	v.SetDefault("REDIS_TTL", time.Duration(0))
	v.SetDefault("HEALTH_CHECK_INTERVAL", base.Liveness.Interval)
	v.SetDefault("METRICS_ENABLED", base.Metrics.Enabled)
	v.SetDefault("AUDIT_ENABLED", base.Audit.Enabled)
	v.SetDefault("PUBLIC_PATHS", strings.Join(base.API.PublicPaths, ","))

	if dotenv != "" {
		v.SetConfigFile(dotenv)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
			return Config{}, fmt.Errorf("read %s: %w", dotenv, err)
		}
	}

	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var env envConfig
	if err := v.Unmarshal(&env); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	cfg := base
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(env.APIBaseURL), "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaultBaseURL
	}
	cfg.API.Timeout = env.APITimeout
	cfg.API.PublicPaths = splitList(env.PublicPaths)
	cfg.Storage.Kind = StorageKind(strings.ToLower(strings.TrimSpace(env.TokenStore)))
	cfg.Storage.FilePath = env.TokenStorePath
	cfg.Storage.RedisAddr = env.RedisAddr
	cfg.Storage.RedisPrefix = env.RedisPrefix
	cfg.Storage.RedisTTL = env.RedisTTL
	cfg.Liveness.Interval = env.HealthCheckInterval
	cfg.Metrics.Enabled = env.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = env.MetricsEnabled
	cfg.Audit.Enabled = env.AuditEnabled

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
