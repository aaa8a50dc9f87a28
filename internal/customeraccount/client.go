package customeraccount

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/auth"
	"headless-storefront/internal/graphql"
	"headless-storefront/internal/logging"
)

const (
	DefaultAPIVersion = "2025-07"
	tokenPrefix       = "shcat_"
)

// ErrInvalidToken is returned for access tokens that are not customer account tokens.
var ErrInvalidToken = errors.New("Invalid token format")

// TokenSource hands out access tokens. *auth.Coordinator implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

type Config struct {
	ShopID     string
	APIVersion string
	Endpoint   string
	HTTPClient *http.Client
}

// Endpoint returns the Customer Account API GraphQL URL for a shop.
func Endpoint(shopID, apiVersion string) string {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return fmt.Sprintf("https://shopify.com/%s/account/customer/api/%s/graphql", shopID, apiVersion)
}

// Client calls the Customer Account API on behalf of the signed-in customer.
type Client struct {
	gql    *graphql.Client
	tokens TokenSource
	logger log.FieldLogger
}

func New(cfg Config, tokens TokenSource, logger log.FieldLogger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = Endpoint(cfg.ShopID, cfg.APIVersion)
	}
	c := &Client{
		tokens: tokens,
		logger: logging.Component(logger, "customer_account"),
	}
	opts := []graphql.Option{
		graphql.WithHeaderFunc(c.authHeader),
		graphql.WithLogger(logger),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, graphql.WithHTTPClient(cfg.HTTPClient))
	}
	c.gql = graphql.New(endpoint, opts...)
	return c
}

// authHeader sends the raw token; this API rejects the "Bearer" scheme.
func (c *Client) authHeader(ctx context.Context) (map[string]string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, tokenPrefix) {
		c.logger.Error("access token is missing the shcat_ prefix")
		return nil, ErrInvalidToken
	}
	return map[string]string{"Authorization": token}, nil
}

// do runs a request and, on an auth failure, refreshes once and retries. A second
// failure signs the customer out.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	err := c.gql.Do(ctx, query, vars, out)
	if err == nil || !graphql.IsAuthError(err) {
		return err
	}

	c.logger.WithError(err).Info("auth error, refreshing token and retrying")
	if _, refreshErr := c.tokens.ForceRefresh(ctx); refreshErr != nil {
		return c.requireAuth(ctx, refreshErr)
	}
	err = c.gql.Do(ctx, query, vars, out)
	if err != nil && graphql.IsAuthError(err) {
		return c.requireAuth(ctx, err)
	}
	return err
}

func (c *Client) requireAuth(ctx context.Context, cause error) error {
	c.logger.WithError(cause).Warn("customer must sign in again")
	if err := c.tokens.Logout(ctx); err != nil {
		c.logger.WithError(err).Error("logout after auth failure")
	}
	if errors.Is(cause, auth.ErrAuthRequired) {
		return cause
	}
	return fmt.Errorf("%w: %v", auth.ErrAuthRequired, cause)
}
