package backend

import (
	"fmt"
	"time"

	"moneta/internal/config"
)

// FromAppConfig derives the backend config from the application config. The
// demo/remote choice is made exactly once here.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	if appConfig.RemoteConfigured() {
		return Config{
			Type:      RemoteBackend,
			RemoteURL: appConfig.StoreURL,
			RemoteKey: appConfig.StoreKey,
		}, nil
	}
	return Config{
		Type:        DemoBackend,
		DemoLatency: appConfig.DemoLatency.String(),
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RemoteBackend:
		if c.RemoteURL == "" {
			return fmt.Errorf("remote store URL is required for remote backend")
		}
		if c.RemoteKey == "" {
			return fmt.Errorf("remote store access key is required for remote backend")
		}
	case DemoBackend:
		if c.DemoLatency != "" {
			if _, err := time.ParseDuration(c.DemoLatency); err != nil {
				return fmt.Errorf("invalid demo latency %q: %w", c.DemoLatency, err)
			}
		}
	}
	return nil
}
