package shopify

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/graphql"
	"headless-storefront/internal/logging"
)

const DefaultAPIVersion = "2024-01"

// Config describes a storefront endpoint. Endpoint overrides the URL derived from
// StoreDomain and APIVersion.
type Config struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	Endpoint    string
	HTTPClient  *http.Client
}

// Endpoint returns the Storefront API GraphQL URL for a shop domain.
func Endpoint(storeDomain, apiVersion string) string {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", storeDomain, apiVersion)
}

// Client talks to the public Storefront API: catalog reads and cart mutations.
type Client struct {
	gql    *graphql.Client
	logger log.FieldLogger
}

func New(cfg Config, logger log.FieldLogger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = Endpoint(cfg.StoreDomain, cfg.APIVersion)
	}
	opts := []graphql.Option{
		graphql.WithHeader("X-Shopify-Storefront-Access-Token", cfg.AccessToken),
		graphql.WithLogger(logger),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, graphql.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{
		gql:    graphql.New(endpoint, opts...),
		logger: logging.Component(logger, "shopify"),
	}
}
