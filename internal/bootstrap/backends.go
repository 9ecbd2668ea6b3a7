// Package bootstrap builds the storage backends selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	dsInfra "github.com/fastygo/taskboard/internal/infrastructure/datastore"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/repository"
	dsRepo "github.com/fastygo/taskboard/repository/datastore"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
)

// Backends are the stores every front end needs.
type Backends struct {
	Tasks    repository.TaskRepository
	Users    repository.UserRepository
	Sessions repository.SessionRepository

	// SessionProbe is nil when sessions live in process.
	SessionProbe monitor.Pinger
	// Cleaners lists stores that need periodic expiry sweeps.
	Cleaners map[string]services.Cleaner
}

// Open connects to the configured stores and registers their shutdown hooks on manager.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, manager *lifecycle.Manager) (*Backends, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backends{Cleaners: make(map[string]services.Cleaner)}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		b.Tasks = postgres.NewTaskRepository(pool)
		b.Users = postgres.NewUserRepository(pool)

	case config.StoreDriverDatastore:
		client, err := dsInfra.NewClient(ctx, cfg.Datastore, logger)
		if err != nil {
			return nil, err
		}
		manager.Register("datastore", func(ctx context.Context) error {
			return client.Close()
		})
		b.Tasks = dsRepo.NewTaskRepository(client)
		b.Users = dsRepo.NewUserRepository(client)

	case config.StoreDriverMemory:
		logger.Warn("using in-memory task store, data is lost on exit")
		b.Tasks = memory.NewTaskRepository()
		b.Users = memory.NewUserRepository()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	switch cfg.Store.SessionDriver {
	case config.SessionDriverRedis:
		client, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		b.Sessions = redisRepo.NewSessionRepository(client, cfg.Auth.SessionTTL)
		b.SessionProbe = redisInfra.Pinger{Client: client}

	case config.SessionDriverMemory:
		sessions := memory.NewSessionRepository(cfg.Auth.SessionTTL)
		b.Sessions = sessions
		b.Cleaners["sessions"] = sessions

	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Store.SessionDriver)
	}

	return b, nil
}
