package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
	"MiniShop/pkg/kit"
)

func main() {
	service := "catalog"

	var cfg config.Catalog
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var store catalog.Store = catalog.NewMemStore()
	if cfg.DatabaseURL != "" {
		db, err := catalog.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		store = catalog.NewPostgresStore(db)
		log.Info("using postgres product store")
	}

	s := &catalog.Server{Store: store, Log: log}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
