package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
)

const (
	DefaultAPIVersion = "2023-10-01"
	DefaultLimit      = 20
)

// ErrUnavailable is returned while the breaker is open after repeated upstream failures.
var ErrUnavailable = errors.New("sanity: upstream unavailable")

// QueryError is a non-2xx answer from the query API.
type QueryError struct {
	StatusCode  int
	Description string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sanity: query failed with status %d: %s", e.StatusCode, e.Description)
}

type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	Token      string
	// BaseURL overrides the host derived from ProjectID and UseCDN.
	BaseURL    string
	HTTPClient *http.Client
}

// Client runs GROQ queries with the server-held token. It must not be used on devices.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     log.FieldLogger
}

func New(cfg Config, logger log.FieldLogger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	base := cfg.BaseURL
	if base == "" {
		host := "api"
		if cfg.UseCDN {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	l := logging.Component(logger, "sanity")

	c := &Client{
		endpoint:   fmt.Sprintf("%s/v%s/data/query/%s", strings.TrimRight(base, "/"), strings.TrimPrefix(cfg.APIVersion, "v"), cfg.Dataset),
		token:      cfg.Token,
		httpClient: hc,
		logger:     l,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "sanity",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A rejected query is the caller's fault, not an unhealthy upstream.
		IsSuccessful: func(err error) bool {
			var qe *QueryError
			if errors.As(err, &qe) {
				return qe.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.WithFields(log.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
	Message string `json:"message"`
}

// Raw runs query and returns the undecoded "result" member. Params are sent as
// $name query parameters with JSON-encoded values.
func (c *Client) Raw(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("query", query)
	for k, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode param %s: %w", k, err)
		}
		q.Set("$"+k, string(encoded))
	}

	res, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, c.endpoint+"?"+q.Encode())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sanity request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sanity response: %w", err)
	}
	c.logger.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("sanity query")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		desc := er.Error.Description
		if desc == "" {
			desc = er.Message
		}
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		return nil, &QueryError{StatusCode: resp.StatusCode, Description: desc}
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("decode sanity response: %w", err)
	}
	return qr.Result, nil
}

// Query decodes the result of query into out. A null result leaves out untouched.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	raw, err := c.Raw(ctx, query, params)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode sanity result: %w", err)
	}
	return nil
}

// Home returns nil when the dataset has no home document.
func (c *Client) Home(ctx context.Context) (*domain.Home, error) {
	var out *domain.Home
	if err := c.Query(ctx, homeQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Settings(ctx context.Context) (*domain.Settings, error) {
	var out *domain.Settings
	if err := c.Query(ctx, settingsQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Page returns nil when no page has the slug.
func (c *Client) Page(ctx context.Context, slug string) (*domain.Page, error) {
	var out *domain.Page
	if err := c.Query(ctx, pageQuery, map[string]any{"slug": slug}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Products(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	return c.documents(ctx, productsQuery, limit)
}

func (c *Client) Collections(ctx context.Context, limit int) ([]domain.CMSDocument, error) {
	return c.documents(ctx, collectionsQuery, limit)
}

func (c *Client) documents(ctx context.Context, query string, limit int) ([]domain.CMSDocument, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := []domain.CMSDocument{}
	if err := c.Query(ctx, query, map[string]any{"limit": limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
