package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote store. Both settings present, non-placeholder and well-formed
	// select remote mode; anything else silently selects demo mode.
	StoreURL string
	StoreKey string

	// Demo
	DemoLatency time.Duration

	// Local preferences database
	PrefsDBPath string

	// AMQP mutation-event bus (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Session
	ProfileFetchTimeout time.Duration
}

// Placeholder values shipped in .env templates; they never select remote
// mode.
var placeholders = []string{"your-project-url", "your-access-key", "changeme", "xxx"}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		StoreURL: getEnv("STORE_URL", ""),
		StoreKey: getEnv("STORE_KEY", ""),

		DemoLatency: getEnvDuration("DEMO_LATENCY", 300*time.Millisecond),

		PrefsDBPath: getEnv("PREFS_DB_PATH", "./data/moneta.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneta"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entity_events"),

		ProfileFetchTimeout: getEnvDuration("PROFILE_FETCH_TIMEOUT", 3*time.Second),
	}
}

// RemoteConfigured reports whether the remote store settings select remote
// mode. Absent or placeholder values and malformed URLs all fall back to demo
// mode; that fallback is the single feature flag for the whole backend
// choice and is never an error.
func (c *Config) RemoteConfigured() bool {
	u := strings.TrimSpace(c.StoreURL)
	k := strings.TrimSpace(c.StoreKey)
	if u == "" || k == "" {
		return false
	}
	for _, p := range placeholders {
		if strings.EqualFold(u, p) || strings.EqualFold(k, p) {
			return false
		}
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return true
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.PrefsDBPath == "" {
		errs = append(errs, "preferences database path cannot be empty")
	} else {
		dir := filepath.Dir(c.PrefsDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create preferences directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DemoLatency < 0 || c.DemoLatency > 10*time.Second {
		errs = append(errs, fmt.Sprintf("invalid demo latency %v: must be between 0 and 10s", c.DemoLatency))
	}

	if c.ProfileFetchTimeout < 100*time.Millisecond || c.ProfileFetchTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid profile fetch timeout %v: must be between 100ms and 1m", c.ProfileFetchTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
