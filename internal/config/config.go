package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Every stage receives it (or a
// section of it) explicitly; nothing reads process-wide state after load.
type Config struct {
	AWS struct {
		Region   string `mapstructure:"region"`
		Profile  string `mapstructure:"profile"`
		Endpoint string `mapstructure:"endpoint"` // optional override, e.g. for localstack
	} `mapstructure:"aws"`

	OpenAI struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"openai"`

	Poll struct {
		Interval time.Duration `mapstructure:"interval"`
		Timeout  time.Duration `mapstructure:"timeout"`
		Retry    struct {
			MaxAttempts     int           `mapstructure:"max_attempts"`
			InitialInterval time.Duration `mapstructure:"initial_interval"`
			MaxInterval     time.Duration `mapstructure:"max_interval"`
		} `mapstructure:"retry"`
	} `mapstructure:"poll"`

	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Events struct {
		TrackingID string `mapstructure:"tracking_id"`
	} `mapstructure:"events"`
}

const (
	DefaultPollInterval = 30 * time.Second
	DefaultPollTimeout  = 2 * time.Hour
	DefaultDSN          = "sqlite://recops.db"
	DefaultQueue        = "waits"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("poll.interval", DefaultPollInterval)
	v.SetDefault("poll.timeout", DefaultPollTimeout)
	v.SetDefault("poll.retry.max_attempts", 0)
	v.SetDefault("poll.retry.initial_interval", time.Second)
	v.SetDefault("poll.retry.max_interval", 30*time.Second)
	v.SetDefault("database.dsn", DefaultDSN)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queues", map[string]int{DefaultQueue: 1})
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads config.yaml from the working directory (if present) and
// RECOPS_* environment variables.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from ./config.yaml when path is
// empty. A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// RECOPS_POLL_INTERVAL overrides poll.interval, and so on.
	v.SetEnvPrefix("RECOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The usual unprefixed variables are honoured too.
	_ = v.BindEnv("openai.api_key", "RECOPS_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("aws.region", "RECOPS_AWS_REGION", "AWS_REGION")
	_ = v.BindEnv("aws.profile", "RECOPS_AWS_PROFILE", "AWS_PROFILE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}
