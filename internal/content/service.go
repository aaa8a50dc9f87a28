package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
)

// Staleness windows per query.
const (
	HomeTTL        = 5 * time.Minute
	PageTTL        = 5 * time.Minute
	ListingTTL     = 5 * time.Minute
	SettingsTTL    = 10 * time.Minute
	DefaultLimit   = 20
	keyHome        = "home"
	keySettings    = "settings"
	keyPagePrefix  = "page:"
	keyProducts    = "products:%d"
	keyCollections = "collections:%d"

	keyProductsPrefix    = "products:"
	keyCollectionsPrefix = "collections:"
)

// Source answers CMS queries. *sanity.Client and *ProxySource implement it.
type Source interface {
	Home(ctx context.Context) (*domain.Home, error)
	Settings(ctx context.Context) (*domain.Settings, error)
	Page(ctx context.Context, slug string) (*domain.Page, error)
	Products(ctx context.Context, limit int) ([]domain.CMSDocument, error)
	Collections(ctx context.Context, limit int) ([]domain.CMSDocument, error)
}

// Service is the read-only, cache-first content layer. It implements Source itself,
// so it can sit in front of any other Source.
type Service struct {
	src    Source
	cache  Cache
	group  singleflight.Group
	logger log.FieldLogger
}

func NewService(src Source, cache Cache, logger log.FieldLogger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{src: src, cache: cache, logger: logging.Component(logger, "content")}
}

// Ready reports whether the cache backend is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *Service) Home(ctx context.Context) (*domain.Home, error) {
	return cached(ctx, s, keyHome, HomeTTL, s.src.Home)
}

func (s *Service) Settings(ctx context.Context) (*domain.Settings, error) {
	return cached(ctx, s, keySettings, SettingsTTL, s.src.Settings)
}

func (s *Service) Page(ctx context.Context, slug string) (*domain.Page, error) {
	if slug == "" {
		return nil, nil
	}
	return cached(ctx, s, keyPagePrefix+slug, PageTTL, func(ctx context.Context) (*domain.Page, error) {
		return s.src.Page(ctx, slug)
	})
}

func (s *Service) Products(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return cached(ctx, s, fmt.Sprintf(keyProducts, limit), ListingTTL, func(ctx context.Context) ([]domain.CMSDocument, error) {
		return s.src.Products(ctx, limit)
	})
}

func (s *Service) Collections(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return cached(ctx, s, fmt.Sprintf(keyCollections, limit), ListingTTL, func(ctx context.Context) ([]domain.CMSDocument, error) {
		return s.src.Collections(ctx, limit)
	})
}

// InvalidateDocument drops the cached queries a published CMS document can appear in.
// Unknown document types drop the whole content cache.
func (s *Service) InvalidateDocument(ctx context.Context, docType, slug string) error {
	var err error
	switch docType {
	case "home":
		err = s.cache.Delete(ctx, keyHome)
	case "settings":
		err = s.cache.Delete(ctx, keySettings)
	case "page":
		if slug != "" {
			err = s.cache.Delete(ctx, keyPagePrefix+slug)
		} else {
			err = s.cache.DeletePrefix(ctx, keyPagePrefix)
		}
	case "product":
		err = s.cache.DeletePrefix(ctx, keyProductsPrefix)
	case "collection":
		err = s.cache.DeletePrefix(ctx, keyCollectionsPrefix)
	default:
		err = s.cache.DeletePrefix(ctx, "")
	}
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", docType, err)
	}
	s.logger.WithFields(log.Fields{"type": docType, "slug": slug}).Info("content invalidated")
	return nil
}

// cached serves key from the cache, or loads it once for all concurrent callers and
// stores it for ttl. Cache failures are logged and never fail the query.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if data, err := s.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.WithField("key", key).Warn("dropping undecodable cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("content cache get failed")
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		if err := s.cache.Set(ctx, key, data, ttl); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("content cache set failed")
		}
		return fresh, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		s.logger.WithField("key", key).Debug("coalesced content load")
	}
	return v.(T), nil
}
