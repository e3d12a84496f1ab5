package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bin-telemetry-service/internal/adapters/cache"
	"bin-telemetry-service/internal/adapters/directions"
	"bin-telemetry-service/internal/adapters/notify"
	"bin-telemetry-service/internal/adapters/repositories"
	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/api"
	"bin-telemetry-service/internal/config"
	"bin-telemetry-service/internal/platform/db"
	"bin-telemetry-service/internal/platform/logger"
	"bin-telemetry-service/internal/ports"
	"bin-telemetry-service/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, MQTT, ORS) behind ports and
// starts the HTTP server.
func main() {
	configDir := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "bin-telemetry-service")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("No .env file found (using environment variables)")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(sqlDB); err != nil {
		return err
	}

	readings := repositories.NewPostgresReadingRepository(sqlDB, log)
	devices := repositories.NewPostgresDeviceRepository(sqlDB, log)
	routes := repositories.NewPostgresRouteRepository(sqlDB, log)
	weather := repositories.NewPostgresWeatherRepository(sqlDB, log)

	engine, err := analytics.NewEngine(cfg.Analysis)
	if err != nil {
		return err
	}

	var insightCache ports.InsightCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		insightCache = cache.NewRedisInsightCache(client, cfg.Redis.TTL, log)
	} else {
		log.Info("REDIS_ADDR not set; insight caching disabled")
	}

	// Without an ORS key, directions fall back to great-circle estimates.
	var dirs ports.DirectionsProvider
	if cfg.ORS.APIKey != "" {
		dirs, err = directions.NewORSDirectionsProvider(cfg.ORS.APIKey, cfg.ORS.BaseURL, cfg.ORS.Profile, log)
		if err != nil {
			return err
		}
	} else {
		log.Info("ORS_API_KEY not set; using estimated directions")
		dirs = directions.NewEstimateProvider()
	}

	analysis := services.NewAnalysisService(readings, engine, insightCache, log)
	deps := api.Deps{
		Analysis: analysis,
		Planner:  services.NewRoutePlanner(devices, analysis, routes, dirs, cfg.Selection, cfg.Watch.Lookback, log),
		Routes:   services.NewRouteLifecycle(routes, log),
		Ingestor: services.NewTelemetryIngestor(devices, weather, analysis, log),
		Log:      log,
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MQTT.Broker != "" {
		client, err := notify.Connect(notify.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			return err
		}
		defer client.Disconnect(250)

		notifier := notify.NewMQTTNotifier(client, cfg.MQTT.Topic, log)
		watcher := services.NewWatcher(notifier, analysis, cfg.Watch.Debounce, cfg.Watch.Lookback, log)
		deps.Latest = watcher
		g.Go(func() error { return watcher.Run(ctx) })
	} else {
		log.Info("MQTT_BROKER not set; background analysis disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
