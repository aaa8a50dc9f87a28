package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/config"
	"headless-storefront/internal/content"
	"headless-storefront/internal/httpserver"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/sanity"
	"headless-storefront/internal/shopify"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	cms := sanity.New(sanity.Config{
		ProjectID:  cfg.Sanity.ProjectID,
		Dataset:    cfg.Sanity.Dataset,
		APIVersion: cfg.Sanity.APIVersion,
		UseCDN:     cfg.Sanity.UseCDN,
		Token:      cfg.Sanity.Token,
		HTTPClient: &http.Client{Timeout: cfg.Sanity.Timeout},
	}, logger)

	var cache content.Cache = content.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		cache = content.NewRedisCache(rdb)
		logger.WithField("addr", cfg.Redis.Addr).Info("using redis content cache")
	}
	contentSvc := content.NewService(cms, cache, logger)

	catalog := shopify.New(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.StorefrontAccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		HTTPClient:  &http.Client{Timeout: cfg.Shopify.Timeout},
	}, logger)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Content:        contentSvc,
		Catalog:        catalog,
		Ready:          contentSvc,
		Invalidator:    contentSvc,
		WebhookSecret:  cfg.Sanity.WebhookSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}
