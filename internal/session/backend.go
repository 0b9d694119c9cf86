package session

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/config"
)

type backendParams struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

// NewBackend picks where remember-me sessions are kept.
func NewBackend(p backendParams) (scs.Store, error) {
	cfg := p.Config.Session

	switch cfg.Store {
	case "", "memory":
		return memstore.New(), nil

	case "file":
		fs := NewFileStore(cfg.FilePath, p.Log)
		p.LC.Append(fx.Hook{OnStop: fs.Stop})
		return fs, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		p.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis session store: %w", err)
				}
				return nil
			},
			OnStop: func(_ context.Context) error {
				return client.Close()
			},
		})
		return goredisstore.NewWithPrefix(client, cfg.Redis.Prefix), nil
	}

	return nil, fmt.Errorf("unknown session store %q", cfg.Store)
}
