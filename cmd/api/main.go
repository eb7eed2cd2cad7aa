package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/printa-pos/internal/modules/catalog"
	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
	"github.com/georgemunganga/printa-pos/internal/platform/config"
	"github.com/georgemunganga/printa-pos/internal/platform/logger"
	"github.com/georgemunganga/printa-pos/internal/platform/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.Must(cfg.AppEnv, cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg.TracingEnabled)
	if err != nil {
		log.Fatal("tracing init failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	// ── Storage ─────────────────────────────────────────────
	var db *sql.DB
	if cfg.StorageDriver == config.DriverPostgres || cfg.CatalogSource == config.DriverPostgres {
		db = openPostgres(ctx, cfg, log)
		defer db.Close()
	}

	var posRepo pos.Repository
	switch cfg.StorageDriver {
	case config.DriverMemory:
		posRepo = pos.NewMemoryRepository()
	case config.DriverPostgres:
		if err := pos.Migrate(ctx, db); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		posRepo = pos.NewPostgresRepository(db)
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("mongo connect failed", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		if err := client.Ping(ctx, nil); err != nil {
			log.Fatal("mongo ping failed", zap.Error(err))
		}
		coll := client.Database(cfg.MongoDB).Collection(pos.CollectionName)
		if err := pos.EnsureIndexes(ctx, coll); err != nil {
			log.Fatal("mongo indexes failed", zap.Error(err))
		}
		posRepo = pos.NewMongoRepository(coll)
	default:
		log.Fatal("unknown storage driver", zap.String("driver", cfg.StorageDriver))
	}
	log.Info("transaction store ready", zap.String("driver", cfg.StorageDriver))

	directory := tenant.NewStaticDirectory(tenant.DefaultStores()...)
	provider := catalog.NewStaticProvider()
	if cfg.CatalogSource == config.DriverPostgres {
		if err := tenant.Migrate(ctx, db); err != nil {
			log.Fatal("tenant migration failed", zap.Error(err))
		}
		if err := catalog.Migrate(ctx, db); err != nil {
			log.Fatal("catalog migration failed", zap.Error(err))
		}
		directory = tenant.NewPostgresDirectory(db)
		provider = catalog.NewPostgresProvider(db)
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	tenant.NewHandler(directory).RegisterRoutes(router)
	catalog.NewHandler(provider).RegisterRoutes(router)
	pos.NewHandler(pos.NewService(posRepo, log)).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info("POS API server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}
}

func openPostgres(ctx context.Context, cfg config.Config, log *zap.Logger) *sql.DB {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres open failed", zap.Error(err))
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("postgres ping failed", zap.Error(err))
	}
	log.Info("connected to postgres")
	return db
}
