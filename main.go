package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"p9e.in/fieldreport/config"
	"p9e.in/fieldreport/pkg/session"
	"p9e.in/fieldreport/pkg/storage"
	"p9e.in/fieldreport/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version info and exit")
	seedFlag := flag.Bool("seed", false, "Create the bootstrap organization and admin login, then exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := config.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	if err := config.Migrations(db); err != nil {
		logger.Fatal("could not run migrations", zap.Error(err))
	}

	if *seedFlag {
		opts := config.SeedOptions{
			OrgName:       envOr("SEED_ORG_NAME", "Demo Contracting"),
			AdminEmail:    envOr("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
			AdminFirst:    envOr("SEED_ADMIN_FIRST", "Site"),
			AdminLast:     envOr("SEED_ADMIN_LAST", "Admin"),
		}
		if err := config.RunAllSeeding(db, opts); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
		logger.Info("seeding complete")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions := openSessionStore(ctx, cfg.Redis, logger)
	defer closeSessions()
	tokens := session.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire, sessions)

	store, err := storage.Open(ctx, storage.Options{
		Backend:        cfg.Storage.Backend,
		BucketPrefix:   cfg.Storage.BucketPrefix,
		LocalRoot:      cfg.Storage.LocalRoot,
		LocalBaseURL:   cfg.Server.PublicURL,
		SigningKey:     cfg.Storage.SigningKey,
		MinIOEndpoint:  cfg.Storage.MinIO.Endpoint,
		MinIOAccessKey: cfg.Storage.MinIO.AccessKey,
		MinIOSecretKey: cfg.Storage.MinIO.SecretKey,
		MinIOUseSSL:    cfg.Storage.MinIO.UseSSL,
	})
	if err != nil {
		logger.Fatal("could not open object storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: routes.RegisterRoutes(routes.Deps{
			Config: cfg,
			DB:     db,
			Log:    logger,
			Tokens: tokens,
			Store:  store,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("version", Version),
			zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openSessionStore uses Redis when configured and reachable. Without it
// refresh tokens live in process memory and do not survive a restart.
func openSessionStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (session.Store, func()) {
	if cfg.Addr == "" {
		logger.Warn("redis not configured, refresh tokens are kept in memory")
		return session.NewMemoryStore(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("could not reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	return session.NewRedisStore(rdb), func() { rdb.Close() }
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
