package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
)

// Scope requested from the customer account provider.
const Scope = "openid email customer-account-api:full"

var (
	ErrInvalidTokenResponse = errors.New("Invalid token response")
	ErrStateMismatch        = errors.New("oauth: state mismatch")
	ErrNonceMismatch        = errors.New("oauth: id token nonce mismatch")
)

// TokenError is a non-2xx reply from the token endpoint.
type TokenError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("Token %s failed: %d %s", e.Op, e.StatusCode, e.Body)
}

type Config struct {
	ClientID         string
	AuthorizationURL string
	TokenURL         string
	LogoutURL        string
	RedirectURL      string
}

// Client runs the authorization-code-with-PKCE flow against a public client.
type Client struct {
	conf       oauth2.Config
	logoutURL  string
	httpClient *http.Client
	now        func() time.Time
	logger     log.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithClock replaces time.Now for expiry computation.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func New(cfg Config, logger log.FieldLogger, opts ...Option) *Client {
	c := &Client{
		conf: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      strings.Fields(Scope),
		},
		logoutURL:  cfg.LogoutURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
		logger:     logging.Component(logger, "oauth"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) RedirectURL() string { return c.conf.RedirectURL }

// Request is one prepared authorization round-trip.
type Request struct {
	URL      string
	State    string
	Nonce    string
	Verifier string
}

// NewRequest generates verifier, state and nonce and builds the authorization URL.
func (c *Client) NewRequest() (*Request, error) {
	state, err := randomString(16)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	nonce, err := randomString(16)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	verifier := NewVerifier()
	u := c.conf.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
	return &Request{URL: u, State: state, Nonce: nonce, Verifier: verifier}, nil
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (domain.Tokens, error) {
	tok, err := c.conf.Exchange(c.ctx(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.Tokens{}, c.tokenErr("exchange", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return domain.Tokens{}, ErrInvalidTokenResponse
	}
	return domain.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      extraString(tok, "id_token"),
		ExpiresAt:    c.expiresAt(tok),
	}, nil
}

// Refresh uses prev.RefreshToken to mint new tokens. Refresh and id tokens missing
// from the reply keep their previous values.
func (c *Client) Refresh(ctx context.Context, prev domain.Tokens) (domain.Tokens, error) {
	if prev.RefreshToken == "" {
		return domain.Tokens{}, errors.New("No tokens to refresh")
	}
	src := c.conf.TokenSource(c.ctx(ctx), &oauth2.Token{RefreshToken: prev.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.Tokens{}, c.tokenErr("refresh", err)
	}
	if tok.AccessToken == "" {
		return domain.Tokens{}, ErrInvalidTokenResponse
	}
	next := domain.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      extraString(tok, "id_token"),
		ExpiresAt:    c.expiresAt(tok),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = prev.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = prev.IDToken
	}
	return next, nil
}

// Logout tells the provider to end the session. The access token goes in the
// Authorization header as-is, without a scheme.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logoutURL, nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &TokenError{Op: "logout", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// VerifyNonce checks the id token's nonce claim against the one sent in the
// authorization request. The signature is not verified on the device.
func VerifyNonce(idToken, nonce string) error {
	if idToken == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return fmt.Errorf("parse id token: %w", err)
	}
	got, ok := claims["nonce"].(string)
	if !ok {
		return nil
	}
	if got != nonce {
		return ErrNonceMismatch
	}
	return nil
}

func (c *Client) expiresAt(tok *oauth2.Token) int64 {
	now := c.now()
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return now.UnixMilli() + int64(v)*1000
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return now.UnixMilli() + n*1000
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return now.UnixMilli() + n*1000
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.UnixMilli()
	}
	return now.UnixMilli()
}

func (c *Client) tokenErr(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		c.logger.WithFields(log.Fields{"op": op, "status": re.Response.StatusCode}).Warn("token endpoint rejected request")
		return &TokenError{Op: op, StatusCode: re.Response.StatusCode, Body: string(re.Body)}
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return ErrInvalidTokenResponse
	}
	return fmt.Errorf("token %s: %w", op, err)
}

func extraString(tok *oauth2.Token, key string) string {
	s, _ := tok.Extra(key).(string)
	return s
}
