package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/georgemunganga/printa-pos/internal/modules/catalog"
	"github.com/georgemunganga/printa-pos/internal/modules/history"
	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/register"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
	"github.com/georgemunganga/printa-pos/internal/platform/config"
	"github.com/georgemunganga/printa-pos/internal/platform/logger"
	"github.com/georgemunganga/printa-pos/internal/platform/tracing"
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

	directory := tenant.NewStaticDirectory(tenant.DefaultStores()...)
	stores, err := directory.Stores(ctx)
	if err != nil || len(stores) == 0 {
		log.Fatal("no stores configured", zap.Error(err))
	}
	scope, err := tenant.NewContext(stores[0])
	if err != nil {
		log.Fatal("invalid initial store", zap.Error(err))
	}

	repo := pos.NewHTTPRepository(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout})
	cache := history.New(repo, log)
	session, err := register.NewSession(ctx, scope, catalog.NewStaticProvider(), cache, log)
	if err != nil {
		log.Fatal("register start failed", zap.Error(err))
	}
	defer session.Close()

	log.Info("register connected", zap.String("api", cfg.APIURL))
	r := &repl{session: session, scope: scope, directory: directory, in: os.Stdin, out: os.Stdout}
	r.run(ctx)
}
