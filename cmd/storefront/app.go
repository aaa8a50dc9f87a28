package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/auth"
	"headless-storefront/internal/cart"
	"headless-storefront/internal/config"
	"headless-storefront/internal/content"
	"headless-storefront/internal/customeraccount"
	"headless-storefront/internal/db"
	"headless-storefront/internal/migrate"
	"headless-storefront/internal/oauth"
	"headless-storefront/internal/shopify"
	"headless-storefront/internal/storage"
)

// app holds the device-side services one command invocation works with.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	shop    *shopify.Client
	auth    *auth.Coordinator
	cart    *cart.Coordinator
	account *customeraccount.Client
	content *content.Service
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	key, err := storage.LoadOrCreateKey(cfg.State.SealKeyPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("seal key: %w", err)
	}
	secure := storage.NewSealed(store, key)

	a.shop = shopify.New(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.StorefrontAccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		HTTPClient:  &http.Client{Timeout: cfg.Shopify.Timeout},
	}, logger)

	oauthClient := oauth.New(oauth.Config{
		ClientID:         cfg.CustomerAccount.ClientID,
		AuthorizationURL: cfg.CustomerAccount.AuthorizationURL,
		TokenURL:         cfg.CustomerAccount.TokenURL,
		LogoutURL:        cfg.CustomerAccount.LogoutURL,
		RedirectURL:      cfg.CustomerAccount.CallbackURL,
	}, logger)
	browser := &oauth.LoopbackBrowser{Out: os.Stderr}
	a.auth = auth.New(oauthClient, browser, auth.NewTokenStore(secure), logger,
		auth.WithBiometric(newTerminalPrompt(os.Stdin, os.Stderr)))

	a.account = customeraccount.New(customeraccount.Config{
		ShopID:     cfg.CustomerAccount.ShopID,
		APIVersion: cfg.CustomerAccount.APIVersion,
	}, a.auth, logger)
	a.auth.SetCustomerFetcher(a.account)

	a.cart = cart.New(a.shop, store, logger)

	proxy := content.NewProxySource(cfg.ContentAPIURL, nil)
	a.content = content.NewService(proxy, content.NewMemoryCache(), logger)

	return a, nil
}

// openStore returns the plain device store for the configured driver. Tokens are
// sealed on top of it.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	st := a.cfg.State
	switch st.Driver {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite":
		deviceID, err := a.deviceID()
		if err != nil {
			return nil, err
		}
		s, err := storage.OpenSQLite(ctx, st.SQLitePath, deviceID, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case "postgres":
		deviceID, err := a.deviceID()
		if err != nil {
			return nil, err
		}
		pool, err := db.Connect(ctx, st.DBConnString, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := migrate.Apply(ctx, pool); err != nil {
			return nil, err
		}
		return storage.NewPostgres(pool, deviceID), nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", st.Driver)
	}
}

// deviceID returns the configured id, or one persisted next to the seal key.
func (a *app) deviceID() (string, error) {
	if a.cfg.State.DeviceID != "" {
		return a.cfg.State.DeviceID, nil
	}
	path := filepath.Join(filepath.Dir(a.cfg.State.SealKeyPath), "storefront.device")
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	a.logger.WithField("device_id", id).Info("created device id")
	return id, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
