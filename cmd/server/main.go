package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/myflix/internal/auth"
	"github.com/ayush/myflix/internal/config"
	"github.com/ayush/myflix/internal/logging"
	"github.com/ayush/myflix/internal/metrics"
	"github.com/ayush/myflix/internal/movies"
	"github.com/ayush/myflix/internal/server"
	"github.com/ayush/myflix/internal/store"
	"github.com/ayush/myflix/internal/users"
)

// userStore is everything the service needs from whichever backend holds accounts.
type userStore interface {
	auth.CredentialStore
	users.Store
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("refusing to start")
	}
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("mongo connect")
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB), cfg.StoreTimeout)

	// ── Users: MongoDB or PostgreSQL ─────────────────────────
	var accounts userStore
	switch cfg.UserStore {
	case config.UserStorePostgres:
		db, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("postgres connect")
		}
		defer db.Close()
		pgStore := store.NewPostgresStore(db, cfg.StoreTimeout)
		if err := pgStore.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("postgres migrate")
		}
		accounts = pgStore
	default:
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Fatal("mongo indexes")
		}
		accounts = mongoStore
	}
	log.WithField("user_store", cfg.UserStore).Info("user store ready")

	// ── Redis login limiter ──────────────────────────────────
	var limiter auth.LoginLimiter
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.WithError(err).Fatal("redis connect")
		}
		defer rdb.Close()
		limiter = store.NewLoginLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow, cfg.StoreTimeout)
	} else {
		log.Warn("REDIS_ADDR not set, login throttling disabled")
	}

	// ── MinIO posters ────────────────────────────────────────
	var posters movies.PosterStore
	if cfg.MinioAccessKey != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.WithError(err).Fatal("minio connect")
		}
		posters = minioStore
	} else {
		log.Warn("MINIO_ACCESS_KEY not set, poster images disabled")
	}

	// ── Auth ─────────────────────────────────────────────────
	m := metrics.New()
	secret := []byte(cfg.JWTSecret)
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("password hasher")
	}
	issuer, err := auth.NewTokenIssuer(secret, cfg.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("token issuer")
	}
	local := auth.NewLocalStrategy(accounts, hasher, log, m)
	bearer := auth.NewTokenStrategy(secret, accounts, log, m)

	// ── Router ───────────────────────────────────────────────
	r := server.NewRouter(server.Deps{
		Log:         log,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Login:       auth.NewHandler(local, issuer, limiter, log, m),
		Bearer:      bearer,
		Users:       users.NewHandler(accounts, mongoStore, hasher, log),
		Movies:      movies.NewHandler(mongoStore, posters, log),
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("myflix listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
