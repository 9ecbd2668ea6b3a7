package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/bootstrap"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	backends, err := bootstrap.Open(appCtx, cfg, zapLogger, manager)
	if err != nil {
		zapLogger.Fatal("store setup failed", zap.Error(err))
	}

	mon := monitor.New(backends.Tasks, backends.SessionProbe, nil, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	scheduler := services.NewScheduler(zapLogger)
	for name, cleaner := range backends.Cleaners {
		if err := scheduler.Every(name+"_sweep", cfg.Credentials.SweepInterval, services.Sweep(name, cleaner, zapLogger)); err != nil {
			zapLogger.Fatal("failed to schedule sweep", zap.String("store", name), zap.Error(err))
		}
	}
	scheduler.Start()
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(backends.Users, backends.Sessions, authUC.Config{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, zapLogger)
	identity := usecase.ContextIdentity{}
	profileUseCase := profileUC.New(backends.Users, identity, zapLogger)
	taskUseCase := taskUC.New(backends.Tasks, identity, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, cfg.Store.Driver, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Auth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver),
			zap.String("sessions", cfg.Store.SessionDriver),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
