package main

import (
	"flag"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/config"
	"github.com/ghaggin/fypportal/internal/portal"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/validate"
)

func main() {
	var configPath = flag.String("config", "", "path to the yaml config; defaults to $FYP_CONFIG or ./config/config.yaml")
	flag.Parse()

	newConfig := func() (*config.Config, error) {
		if *configPath != "" {
			return config.Load(*configPath)
		}
		return config.New()
	}

	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			api.NewDefaultMetrics,
			api.New,
			session.NewBackend,
			session.New,
			validate.New,
			portal.New,
		),
		fx.Invoke(portal.RegisterHooks),
	)

	app.Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
