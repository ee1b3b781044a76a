package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/config"
	"MiniShop/internal/users"
	"MiniShop/pkg/kit"
)

func main() {
	service := "users"

	var cfg config.Users
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

	hasher, err := users.NewHasher(cfg.Hasher, cfg.BcryptCost)
	if err != nil {
		log.Fatal("init hasher failed", zap.Error(err))
	}
	if cfg.Hasher == "plain" {
		log.Warn("passwords are stored in plaintext")
	}

	proxies, err := kit.ParsePrefixes(cfg.TrustedProxies)
	if err != nil {
		log.Fatal("parse trusted proxies failed", zap.Error(err))
	}

	store := users.NewStore(hasher)
	if err := store.Initialize(); err != nil {
		log.Fatal("seed users failed", zap.Error(err))
	}

	s := &users.Server{
		Log:      log,
		Store:    users.NewLockedStore(store),
		JWT:      users.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}

	h := users.NewHandler(s, users.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		SignInPerMin:   cfg.SignInPerMin,
		SignUpPerMin:   cfg.SignUpPerMin,
		TrustedProxies: proxies,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
