package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"headless-storefront/internal/domain"
)

// RouteError is a failed internal API call. Message is the route's plain-text body.
type RouteError struct {
	StatusCode int
	Message    string
}

func (e *RouteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content route returned status %d", e.StatusCode)
	}
	return e.Message
}

// ProxySource reads CMS content through the internal API routes, so devices never
// hold the CMS token.
type ProxySource struct {
	baseURL    string
	httpClient *http.Client
}

func NewProxySource(baseURL string, hc *http.Client) *ProxySource {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &ProxySource{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (p *ProxySource) get(ctx context.Context, path string, query url.Values, out any) error {
	target := p.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content route %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RouteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (p *ProxySource) Home(ctx context.Context) (*domain.Home, error) {
	var out *domain.Home
	if err := p.get(ctx, "/api/sanity/home", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProxySource) Settings(ctx context.Context) (*domain.Settings, error) {
	var out *domain.Settings
	if err := p.get(ctx, "/api/sanity/settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProxySource) Page(ctx context.Context, slug string) (*domain.Page, error) {
	var out *domain.Page
	if err := p.get(ctx, "/api/sanity/page/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProxySource) Products(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	var out []domain.CMSDocument
	if err := p.get(ctx, "/api/sanity/products", url.Values{"limit": {strconv.Itoa(limit)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProxySource) Collections(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	var out []domain.CMSDocument
	if err := p.get(ctx, "/api/sanity/collections", url.Values{"limit": {strconv.Itoa(limit)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
