package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/partnerdesk/console/internal/api"
	"github.com/partnerdesk/console/internal/api/middleware"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/core/service"
	"github.com/partnerdesk/console/internal/core/theme"
	"github.com/partnerdesk/console/internal/infrastructure/backend"
	"github.com/partnerdesk/console/internal/infrastructure/config"
	mongodb "github.com/partnerdesk/console/internal/infrastructure/db/mongo"
	redisdb "github.com/partnerdesk/console/internal/infrastructure/db/redis"
	"github.com/partnerdesk/console/internal/infrastructure/queue"
	"github.com/partnerdesk/console/internal/infrastructure/session"
	"github.com/partnerdesk/console/pkg/logger"
)

// @title        Partner Console API
// @version      1.0
// @description  Session, role, branding and theme resolution for the partner console.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment may be set by the platform.
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	// Backend
	be, err := backend.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	defer be.Close()

	// Optional shared branding cache
	var (
		rdb   *redis.Client
		cache ports.BrandingCache
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		cache = redisdb.NewBrandingCache(rdb, cfg.Redis.CacheTTL)
		log.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("branding cache enabled")
	}

	// Optional branding audit log
	var (
		mdb   *mongo.Database
		audit ports.BrandingAuditRepository
	)
	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		mdb = db
		audit = mongodb.NewBrandingAuditRepository(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("branding audit enabled")
	}

	// Services
	classifier := service.NewRoleClassifier(be.Profiles(), service.RoleClassifierOptions{
		ProfileTimeout:    cfg.Timeouts.Profile,
		SuperAdminTimeout: cfg.Timeouts.SuperAdmin,
		ExtraSuperAdmins:  cfg.SuperAdminEmails,
	}, log)

	mirror := service.NewBrandingMirrorService(be.Licenses(), audit, cfg.Timeouts.Branding, logger.Component("mirror"))
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Mirror.Workers, mirror, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	branding := service.NewBrandingResolver(be, cache, audit, dispatcher,
		service.BrandingResolverOptions{Timeout: cfg.Timeouts.Branding}, log)

	mode, ok := theme.ParseMode(cfg.Console.DefaultMode)
	if !ok {
		log.Warn().Str("mode", cfg.Console.DefaultMode).Msg("unknown default theme mode, using light")
		mode = theme.ModeLight
	}
	factory := service.NewConsoleFactory(be, classifier, branding, service.ConsoleOptions{
		Session: service.SessionResolverOptions{SessionTimeout: cfg.Timeouts.Session},
		Mode:    mode,
	}, log)
	registry := session.NewRegistry(factory, session.Options{
		MaxSessions: cfg.Console.MaxSessions,
		IdleTTL:     cfg.Console.IdleTTL,
	}, logger.Component("registry"))

	e := api.NewRouter(api.Deps{
		Backend:  be,
		Registry: registry,
		Signup:   service.NewSignupService(be, classifier, log),
		Mongo:    mdb,
		Redis:    rdb,
		Console: middleware.ConsoleOptions{
			CookieSecure: cfg.Console.CookieSecure,
			IdleTTL:      cfg.Console.IdleTTL,
			ReadyWait:    cfg.Console.ReadyWait,
		},
		Log: logger.Component("http"),
	})

	address := ":" + cfg.Port
	log.Info().
		Str("address", address).
		Str("backend_mode", be.Mode()).
		Msg("starting partner console")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := e.Shutdown(shutdownCtx)

		registry.Close()
		cancelWorkers()
		dispatcher.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server exited properly")
	return nil
}
