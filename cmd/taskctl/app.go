package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/bootstrap"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/identity"
	"github.com/fastygo/taskboard/internal/infrastructure/localstore"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/logger"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	"github.com/fastygo/taskboard/usecase/session"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

const credentialBucket = "credentials"

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *lifecycle.Manager
	backends *bootstrap.Backends
	cache    *localstore.Store
	session  *session.Provider
	tasks    *taskUC.UseCase
	profiles *profileUC.UseCase
}

func openApp(ctx context.Context, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	zapLogger, err := logger.New(logger.Config{Level: level, Encoding: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	a := &app{cfg: cfg, logger: zapLogger, manager: manager}

	backends, err := bootstrap.Open(ctx, cfg, zapLogger, manager)
	if err != nil {
		a.close()
		return nil, err
	}
	a.backends = backends

	cache, err := localstore.Open(cfg.Credentials.Path, credentialBucket)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("credential cache %s: %w", cfg.Credentials.Path, err)
	}
	a.cache = cache
	manager.Register("credential_cache", func(ctx context.Context) error {
		return cache.Close()
	})
	if err := services.Sweep("credentials", cache, zapLogger)(ctx); err != nil {
		zapLogger.Warn("credential sweep failed", zap.Error(err))
	}

	accounts := authUC.New(backends.Users, backends.Sessions, authUC.Config{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, zapLogger)

	a.session = session.New(identity.New(accounts, cache, zapLogger), zapLogger)
	unsubscribe := a.session.Subscribe(func(s session.Snapshot) {
		zapLogger.Debug("session", zap.Stringer("state", s.State), zap.String("email", s.Identity.Email))
	})
	manager.Register("session", func(ctx context.Context) error {
		unsubscribe()
		a.session.Close()
		return nil
	})

	a.tasks = taskUC.New(backends.Tasks, a.session, zapLogger)
	a.profiles = profileUC.New(backends.Users, a.session, zapLogger)

	if err := a.session.Start(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// requireIdentity fails fast with a readable hint when nobody is signed in.
func (a *app) requireIdentity() error {
	if _, ok := a.session.Identity(); !ok {
		return fmt.Errorf("not signed in, run `taskctl login` first")
	}
	return nil
}

func (a *app) close() {
	if err := a.manager.Shutdown(context.Background()); err != nil {
		a.logger.Warn("shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}
