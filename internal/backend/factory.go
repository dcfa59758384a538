package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/ledger/demo"
	"moneta/internal/ledger/remote"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case DemoBackend:
		return f.createDemoBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*Result, error) {
	cli, err := remote.New(config.RemoteURL, config.RemoteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote store client: %w", err)
	}

	f.logger.Info("Initialized remote backend", "store_url", config.RemoteURL)

	return &Result{
		Backend: cli,
		Cleanup: nil, // the remote client holds no local resources
	}, nil
}

func (f *DefaultFactory) createDemoBackend(config Config) (*Result, error) {
	var opts []demo.Option
	if config.DemoLatency != "" {
		d, err := time.ParseDuration(config.DemoLatency)
		if err != nil {
			return nil, fmt.Errorf("invalid demo latency: %w", err)
		}
		if d > 0 {
			opts = append(opts, demo.WithLatency(d))
		}
	}

	store := demo.New(opts...)

	f.logger.Info("Initialized demo backend", "latency", config.DemoLatency)

	return &Result{
		Backend: store,
		Cleanup: nil, // demo data lives only in memory
	}, nil
}
