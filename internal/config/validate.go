package config

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

/*
Validate checks the settings every command relies on. Provider credentials
are not checked here: a provider without credentials is simply not
registered, and waits on its kinds fail with an unsupported-kind error.
*/
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be a positive duration")
	}
	if c.Poll.Timeout <= 0 {
		return errors.New("poll.timeout must be a positive duration")
	}
	if c.Poll.Retry.MaxAttempts < 0 {
		return errors.New("poll.retry.max_attempts cannot be negative")
	}
	if c.Poll.Retry.MaxAttempts > 0 && c.Poll.Retry.InitialInterval <= 0 {
		return errors.New("poll.retry.initial_interval must be positive when retries are enabled")
	}

	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	if c.Redis.Address == "" {
		return errors.New("redis.address is required")
	}

	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	if len(c.Worker.Queues) == 0 {
		return errors.New("worker.queues must define at least one queue")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues[%s] priority must be positive", name)
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ConfigureLogging applies the log section to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
