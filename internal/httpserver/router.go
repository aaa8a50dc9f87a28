package httpserver

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/content"
	"headless-storefront/internal/domain"
	"headless-storefront/internal/shopify"
)

// Catalog is the commerce listing API behind /api/catalog.
type Catalog interface {
	Products(ctx context.Context, first int, after string) (*domain.ProductConnection, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
	Collections(ctx context.Context, first int, after string) (*domain.CollectionConnection, error)
	CollectionByHandle(ctx context.Context, handle string) (*domain.Collection, error)
	Shop(ctx context.Context) (*domain.Shop, error)
	StoreStatus(ctx context.Context) shopify.StoreStatus
}

type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Invalidator drops cached content after a CMS publish.
type Invalidator interface {
	InvalidateDocument(ctx context.Context, docType, slug string) error
}

// Deps are the services the routes call into.
type Deps struct {
	Content        content.Source
	Catalog        Catalog
	Ready          ReadyChecker
	Invalidator    Invalidator
	WebhookSecret  string
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(accessLog io.Writer, logger log.FieldLogger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(accessLog), gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	api := router.Group("/api")
	if deps.Content != nil {
		registerContentRoutes(api.Group("/sanity"), deps.Content, logger)
	}
	if deps.Invalidator != nil && deps.WebhookSecret != "" {
		api.POST("/sanity/webhook", webhookHandler(deps.Invalidator, deps.WebhookSecret, logger))
	}
	if deps.Catalog != nil {
		registerCatalogRoutes(api.Group("/catalog"), deps.Catalog, logger)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Accept", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
