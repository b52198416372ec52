package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/HammerMeetNail/thoughtwall/internal/config"
	"github.com/HammerMeetNail/thoughtwall/internal/database"
	"github.com/HammerMeetNail/thoughtwall/internal/graph"
	"github.com/HammerMeetNail/thoughtwall/internal/handlers"
	"github.com/HammerMeetNail/thoughtwall/internal/logging"
	"github.com/HammerMeetNail/thoughtwall/internal/middleware"
	"github.com/HammerMeetNail/thoughtwall/internal/mongostore"
	"github.com/HammerMeetNail/thoughtwall/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// storeBackend bundles the collections of whichever driver is configured.
type storeBackend struct {
	users    services.UserStore
	thoughts services.ThoughtStore
	health   handlers.HealthChecker
	close    func()
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env":    cfg.Server.Environment,
			"driver": cfg.Store.Driver,
		})
	}

	logger.Info("Starting thoughtwall server...")

	ctx := context.Background()
	backend, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	var redisDB *database.RedisDB
	if cfg.RateLimit.Enabled {
		logger.Info("Connecting to Redis", map[string]interface{}{
			"addr": cfg.Redis.Addr(),
		})
		redisDB, err = database.NewRedisDB(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisDB.Close() }()
		logger.Info("Connected to Redis")
	}

	tokenService := services.NewTokenService(services.TokenConfig{
		Secret: cfg.Auth.TokenSecret,
		Expiry: cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	resolver := services.NewResolver(backend.users, backend.thoughts, tokenService)

	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return err
	}

	var redisHealth handlers.HealthChecker
	if redisDB != nil {
		redisHealth = redisDB
	}
	healthHandler := handlers.NewHealthHandler(backend.health, redisHealth)
	graphqlHandler := handlers.NewGraphQLHandler(schema)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	requestLogger := middleware.NewRequestLogger(logger)

	var graphqlRoute http.Handler = http.HandlerFunc(graphqlHandler.Serve)
	if redisDB != nil {
		limit := resolveRateLimit(cfg, logger, os.LookupEnv)
		rateLimiter := middleware.NewRateLimiter(redisDB.Client, limit, cfg.RateLimit.Window, "ratelimit:graphql:", middleware.IdentityKey, true)
		graphqlRoute = rateLimiter.Middleware(graphqlRoute)
	}

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	mux.Handle("POST /graphql", graphqlRoute)
	mux.Handle("GET /graphql", graphqlRoute)

	// Order matters: outermost last.
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), resolveShutdownTimeout(logger, os.LookupEnv))
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*storeBackend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		logger.Info("Connecting to MongoDB", map[string]interface{}{
			"database": cfg.Mongo.Database,
		})
		mongoDB, err := database.NewMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		if err := mongoDB.EnsureIndexes(ctx); err != nil {
			_ = mongoDB.Close(ctx)
			return nil, fmt.Errorf("creating mongo indexes: %w", err)
		}
		logger.Info("Connected to MongoDB")

		return &storeBackend{
			users:    mongostore.NewUserStore(mongoDB.Database),
			thoughts: mongostore.NewThoughtStore(mongoDB.Database),
			health:   mongoDB,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoDB.Close(closeCtx)
			},
		}, nil

	default:
		logger.Info("Connecting to PostgreSQL", map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
		})
		db, err := database.NewPostgresDB(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		logger.Info("Connected to PostgreSQL")

		logger.Info("Running database migrations...")
		migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating migrator: %w", err)
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		_ = migrator.Close()
		logger.Info("Migrations completed")

		dbAdapter := services.NewPoolAdapter(db.Pool)
		return &storeBackend{
			users:    services.NewPostgresUserStore(dbAdapter),
			thoughts: services.NewPostgresThoughtStore(dbAdapter),
			health:   db,
			close:    db.Close,
		}, nil
	}
}

// resolveRateLimit raises the per-window limit in development unless
// RATE_LIMIT_REQUESTS was set explicitly.
func resolveRateLimit(cfg *config.Config, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	limit := cfg.RateLimit.Requests
	if v, ok := lookupEnv("RATE_LIMIT_REQUESTS"); ok && v != "" {
		logger.Info("Using GraphQL rate limit from env", map[string]interface{}{"limit": limit})
		return limit
	}
	if cfg.Server.Environment == "development" {
		limit *= 10
		logger.Info("Using development GraphQL rate limit", map[string]interface{}{"limit": limit})
	}
	return limit
}

func resolveShutdownTimeout(logger *logging.Logger, lookupEnv func(string) (string, bool)) time.Duration {
	timeout := 30 * time.Second
	if value, ok := lookupEnv("SHUTDOWN_TIMEOUT_SECONDS"); ok && value != "" {
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			logger.Warn("Invalid SHUTDOWN_TIMEOUT_SECONDS; using default", map[string]interface{}{
				"value":   value,
				"default": timeout.String(),
			})
		} else {
			timeout = time.Duration(seconds) * time.Second
		}
	}
	return timeout
}
