// Command tramite-admin serves the processo-tracking admin UI: the
// per-session coordinator bridge, the user-administration API, and the
// metrics endpoint.
//
// Configuration comes from TRAMITE_* environment variables. The backend URL
// and anon key are mandatory; everything else has a sane default.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	tramite "github.com/tramite-hq/tramite"
	"github.com/tramite-hq/tramite/adminapi"
	"github.com/tramite-hq/tramite/internal/bridge"
	"github.com/tramite-hq/tramite/metrics/export/prometheus"
	"github.com/tramite-hq/tramite/views"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("TRAMITE")
	v.AutomaticEnv()
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("BASE_URL", "http://localhost:8080/")
	v.SetDefault("REDIS_PREFIX", "tramite")
	v.SetDefault("HOME_ROUTE", "/painel")
	v.SetDefault("METRICS_ENABLED", true)

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := tramite.Config{}
	cfg.Backend.URL = v.GetString("BACKEND_URL")
	cfg.Backend.AnonKey = v.GetString("BACKEND_ANON_KEY")
	cfg.Admin.JWTSecret = []byte(v.GetString("ADMIN_JWT_SECRET"))
	cfg.Admin.ServiceToken = v.GetString("ADMIN_SERVICE_TOKEN")
	cfg.Session.RedisPrefix = v.GetString("REDIS_PREFIX")
	cfg.Session.StorageTTL = 7 * 24 * time.Hour
	cfg.Routes.HomeRoute = v.GetString("HOME_ROUTE")
	cfg.Routes.RedirectTo = v.GetString("BASE_URL")
	cfg.Metrics.Enabled = v.GetBool("METRICS_ENABLED")

	if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
		logger.Fatal("TRAMITE_BACKEND_URL and TRAMITE_BACKEND_ANON_KEY are required")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	var rdb redis.UniversalClient
	if addr := v.GetString("REDIS_ADDR"); addr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		defer func() { _ = rdb.Close() }()
	} else {
		logger.Warn("TRAMITE_REDIS_ADDR not set, token storage is per-process only")
	}

	br, err := bridge.New(bridge.Options{
		Config:  cfg,
		BaseURL: v.GetString("BASE_URL"),
		Modules: views.Provider(logger),
		Redis:   rdb,
		Log:     logger,
	})
	if err != nil {
		logger.Fatal("bridge setup failed", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", br)

	if len(cfg.Admin.JWTSecret) > 0 && cfg.Admin.ServiceToken != "" {
		store, err := adminapi.NewBackendStore(cfg.Backend.URL, cfg.Admin.ServiceToken, nil)
		if err != nil {
			logger.Fatal("admin store setup failed", zap.Error(err))
		}
		admin, err := adminapi.New(store, cfg.Admin.JWTSecret, logger)
		if err != nil {
			logger.Fatal("admin api setup failed", zap.Error(err))
		}
		mux.Handle("/api/usuarios/", http.StripPrefix("/api/usuarios", admin))
		mux.Handle("/api/usuarios", http.StripPrefix("/api/usuarios", admin))
	} else {
		logger.Warn("admin api disabled, set TRAMITE_ADMIN_JWT_SECRET and TRAMITE_ADMIN_SERVICE_TOKEN to enable it")
	}

	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", prometheus.NewPrometheusExporterFromSource(br).Handler())
	}

	srv := &http.Server{
		Addr:              v.GetString("LISTEN_ADDR"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}
