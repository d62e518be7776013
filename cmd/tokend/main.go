// Package main implements tokend, the ledger daemon for the price-pegged
// token. It wires the stores, services and HTTP API together and runs the
// stabilization keeper.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/SLC-Network/token_layer/internal/app"
	"github.com/SLC-Network/token_layer/internal/app/httpapi"
	"github.com/SLC-Network/token_layer/internal/app/metrics"
	"github.com/SLC-Network/token_layer/internal/app/services/pricefeed"
	"github.com/SLC-Network/token_layer/internal/config"
	"github.com/SLC-Network/token_layer/internal/middleware"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.NewDefault("tokend").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)

	var source pricefeed.Source
	if cfg.PriceFeedURL != "" {
		httpSource := pricefeed.NewHTTPSource("http", cfg.PriceFeedURL, cfg.PriceFeedJSONPath, nil)
		if cfg.PriceFeedTimePath != "" {
			httpSource = httpSource.WithTimestampPath(cfg.PriceFeedTimePath)
		}
		source = httpSource
		log.WithField("url", cfg.PriceFeedURL).Info("using HTTP price source")
	} else {
		source = pricefeed.NewStatic()
		log.Warn("PRICE_FEED_URL not set; prices must be pushed through the oracle API")
	}

	application, err := app.New(app.Config{
		Metadata:       cfg.Metadata,
		Admin:          cfg.Admin,
		InitialSupply:  cfg.InitialSupply,
		InitialHolder:  cfg.InitialHolder,
		Fees:           cfg.Fees,
		Stabilization:  cfg.Stabilization,
		PriceSource:    source,
		KeeperAccount:  cfg.KeeperAccount,
		KeeperSchedule: cfg.KeeperSchedule,
	}, app.Stores{}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Initialize(ctx); err != nil {
		log.WithError(err).Error("initialize application")
		os.Exit(1)
	}
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start services")
		os.Exit(1)
	}

	handler := httpapi.NewHandler(application)
	if cfg.JWTSecret != "" {
		auth := middleware.NewAuth([]byte(cfg.JWTSecret), log, []string{"/health", "/metrics", "/token"})
		handler = auth.Handler(handler)
	} else {
		log.Warn("JWT_SECRET not set; API authentication disabled")
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(10*time.Minute, stopCleanup)

	handler = limiter.Handler(handler)
	handler = middleware.RequestLog(log)(handler)
	handler = metrics.InstrumentHandler(handler)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	case <-ctx.Done():
	}

	close(stopCleanup)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("service shutdown")
	}
	log.Info("tokend stopped")
}
