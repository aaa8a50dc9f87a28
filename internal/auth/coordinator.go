package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/oauth"
)

const (
	// RefreshBuffer is how close to expiry a token may get before it is refreshed.
	// Startup, API calls and the background timer all use it.
	RefreshBuffer = 5 * time.Minute
	// RefreshInterval is the period of the background refresh check.
	RefreshInterval = 60 * time.Second

	biometricPrompt = "Authenticate to access your account"
)

var (
	// ErrAuthRequired means the customer must sign in again.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNoAuthCode is returned when the browser reports success without a code.
	ErrNoAuthCode = errors.New("No authorization code received")
)

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticating  Status = "authenticating"
	StatusAuthenticated   Status = "authenticated"
	StatusRefreshing      Status = "refreshing"
)

// State is the observable auth state. Listeners receive copies.
type State struct {
	Status           Status
	IsLoading        bool
	Customer         *domain.Customer
	Tokens           *domain.Tokens
	Error            string
	BiometricEnabled bool
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated || s.Status == StatusRefreshing
}

func (s State) clone() State {
	out := s
	if s.Customer != nil {
		c := *s.Customer
		out.Customer = &c
	}
	if s.Tokens != nil {
		t := *s.Tokens
		out.Tokens = &t
	}
	return out
}

// OAuthClient is the provider side of the flow.
type OAuthClient interface {
	NewRequest() (*oauth.Request, error)
	RedirectURL() string
	Exchange(ctx context.Context, code, verifier string) (domain.Tokens, error)
	Refresh(ctx context.Context, prev domain.Tokens) (domain.Tokens, error)
	Logout(ctx context.Context, accessToken string) error
}

// Biometric is the device's local authentication prompt.
type Biometric interface {
	Available(ctx context.Context) (bool, error)
	Authenticate(ctx context.Context, prompt string) (bool, error)
}

type CustomerFetcher interface {
	Customer(ctx context.Context) (*domain.Customer, error)
}

// Coordinator drives login, logout and token refresh, and publishes State.
type Coordinator struct {
	oauth     OAuthClient
	browser   oauth.Browser
	tokens    *TokenStore
	biometric Biometric
	customers CustomerFetcher
	now       func() time.Time
	interval  time.Duration
	logger    log.FieldLogger

	refreshGroup singleflight.Group

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

func WithBiometric(b Biometric) Option { return func(c *Coordinator) { c.biometric = b } }

func WithRefreshInterval(d time.Duration) Option { return func(c *Coordinator) { c.interval = d } }

func New(client OAuthClient, browser oauth.Browser, tokens *TokenStore, logger log.FieldLogger, opts ...Option) *Coordinator {
	c := &Coordinator{
		oauth:     client,
		browser:   browser,
		tokens:    tokens,
		now:       time.Now,
		interval:  RefreshInterval,
		logger:    logging.Component(logger, "auth"),
		state:     State{Status: StatusUnauthenticated},
		listeners: map[int]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCustomerFetcher wires the customer account client once it exists; it needs
// the coordinator for tokens, so it cannot be passed to New.
func (c *Coordinator) SetCustomerFetcher(f CustomerFetcher) {
	c.mu.Lock()
	c.customers = f
	c.mu.Unlock()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot := c.state.clone()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()
	for _, l := range listeners {
		l(snapshot)
	}
}

func (c *Coordinator) ClearError() {
	c.update(func(s *State) { s.Error = "" })
}

// Login runs the full PKCE round-trip. On any failure nothing is persisted and
// the state returns to unauthenticated with the error message.
func (c *Coordinator) Login(ctx context.Context) error {
	c.update(func(s *State) {
		s.Status = StatusAuthenticating
		s.IsLoading = true
		s.Error = ""
	})

	tokens, err := c.login(ctx)
	if err != nil {
		if clearErr := c.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			c.logger.WithError(clearErr).Warn("clear partial login state")
		}
		c.update(func(s *State) {
			s.Status = StatusUnauthenticated
			s.IsLoading = false
			s.Tokens = nil
			s.Customer = nil
			s.Error = err.Error()
		})
		c.logger.WithError(err).Info("login failed")
		return err
	}

	c.update(func(s *State) {
		s.Status = StatusAuthenticated
		s.IsLoading = false
		s.Tokens = &tokens
	})
	c.logger.Info("customer signed in")
	return nil
}

func (c *Coordinator) login(ctx context.Context) (domain.Tokens, error) {
	req, err := c.oauth.NewRequest()
	if err != nil {
		return domain.Tokens{}, err
	}
	if err := c.tokens.SaveVerifier(ctx, req.Verifier); err != nil {
		return domain.Tokens{}, fmt.Errorf("store verifier: %w", err)
	}

	res, err := c.browser.Authorize(ctx, req.URL, c.oauth.RedirectURL())
	if err != nil {
		return domain.Tokens{}, err
	}
	if res.Type != oauth.ResultSuccess {
		return domain.Tokens{}, fmt.Errorf("Authentication %s", res.Type)
	}
	code := res.Params["code"]
	if code == "" {
		return domain.Tokens{}, ErrNoAuthCode
	}
	if res.Params["state"] != req.State {
		return domain.Tokens{}, oauth.ErrStateMismatch
	}

	tokens, err := c.oauth.Exchange(ctx, code, req.Verifier)
	if err != nil {
		return domain.Tokens{}, err
	}
	if err := oauth.VerifyNonce(tokens.IDToken, req.Nonce); err != nil {
		return domain.Tokens{}, err
	}
	if err := c.tokens.Save(ctx, tokens); err != nil {
		return domain.Tokens{}, err
	}
	if err := c.tokens.ClearVerifier(ctx); err != nil {
		c.logger.WithError(err).Warn("clear code verifier")
	}
	return tokens, nil
}

// Logout ends the provider session on a best-effort basis, then clears local tokens.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.update(func(s *State) { s.IsLoading = true })

	current := c.State().Tokens
	if current == nil {
		stored, err := c.tokens.Load(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("load tokens for logout")
		}
		current = stored
	}
	if current != nil && current.AccessToken != "" {
		if err := c.oauth.Logout(ctx, current.AccessToken); err != nil {
			c.logger.WithError(err).Warn("logout endpoint call failed, continuing with local logout")
		}
	}

	// The local session ends even when the store cannot be cleared or ctx is done.
	clearErr := c.tokens.Clear(context.WithoutCancel(ctx))
	if clearErr != nil {
		c.logger.WithError(clearErr).Error("clear stored tokens")
	}
	c.update(func(s *State) {
		s.Status = StatusUnauthenticated
		s.IsLoading = false
		s.Tokens = nil
		s.Customer = nil
		s.Error = ""
		if clearErr != nil {
			s.Error = clearErr.Error()
		}
	})
	return clearErr
}

// CheckStatus restores the session at startup.
func (c *Coordinator) CheckStatus(ctx context.Context) error {
	c.update(func(s *State) { s.IsLoading = true })

	tokens, err := c.tokens.Load(ctx)
	if err != nil {
		c.update(func(s *State) {
			s.Status = StatusUnauthenticated
			s.IsLoading = false
			s.Tokens = nil
			s.Customer = nil
			s.Error = err.Error()
		})
		return err
	}
	if tokens == nil {
		c.update(func(s *State) {
			s.Status = StatusUnauthenticated
			s.IsLoading = false
			s.Tokens = nil
			s.Customer = nil
		})
		return nil
	}

	c.update(func(s *State) {
		s.Status = StatusAuthenticated
		s.Tokens = tokens
	})
	if tokens.NeedsRefresh(c.now(), RefreshBuffer) {
		if _, err := c.refresh(ctx); err != nil {
			c.update(func(s *State) { s.IsLoading = false })
			return nil
		}
	}
	c.update(func(s *State) { s.IsLoading = false })
	return nil
}

// AccessToken returns a token valid for at least RefreshBuffer, refreshing first
// when needed. A failed refresh logs the customer out and yields ErrAuthRequired.
func (c *Coordinator) AccessToken(ctx context.Context) (string, error) {
	tokens := c.State().Tokens
	if tokens == nil {
		stored, err := c.tokens.Load(ctx)
		if err != nil {
			return "", err
		}
		if stored == nil {
			return "", ErrAuthRequired
		}
		tokens = stored
		c.update(func(s *State) {
			s.Status = StatusAuthenticated
			s.Tokens = stored
		})
	}
	if !tokens.NeedsRefresh(c.now(), RefreshBuffer) {
		return tokens.AccessToken, nil
	}
	next, err := c.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return next.AccessToken, nil
}

// ForceRefresh refreshes regardless of expiry; used after the API rejected a token.
func (c *Coordinator) ForceRefresh(ctx context.Context) (string, error) {
	next, err := c.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return next.AccessToken, nil
}

// Refresh exchanges the refresh token. Failure forces logout.
func (c *Coordinator) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

// refresh is shared by concurrent callers so one refresh token is spent once.
func (c *Coordinator) refresh(ctx context.Context) (domain.Tokens, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		current := c.State().Tokens
		if current == nil {
			stored, err := c.tokens.Load(ctx)
			if err != nil {
				return domain.Tokens{}, err
			}
			if stored == nil {
				return domain.Tokens{}, errors.New("No tokens to refresh")
			}
			current = stored
		}

		c.update(func(s *State) { s.Status = StatusRefreshing })
		next, err := c.oauth.Refresh(ctx, *current)
		if err == nil {
			err = c.tokens.Save(ctx, next)
		}
		if err != nil {
			c.logger.WithError(err).Warn("token refresh failed, logging out")
			if logoutErr := c.Logout(ctx); logoutErr != nil {
				c.logger.WithError(logoutErr).Error("logout after failed refresh")
			}
			c.update(func(s *State) { s.Error = err.Error() })
			return domain.Tokens{}, err
		}

		c.update(func(s *State) {
			s.Status = StatusAuthenticated
			s.Tokens = &next
			s.Error = ""
		})
		c.logger.WithField("expires_at", time.UnixMilli(next.ExpiresAt).UTC()).Debug("tokens refreshed")
		return next, nil
	})
	if err != nil {
		return domain.Tokens{}, err
	}
	return v.(domain.Tokens), nil
}

// StartBackgroundRefresh checks the tokens every interval until ctx ends. The
// returned channel is closed once the loop has stopped.
func (c *Coordinator) StartBackgroundRefresh(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.backgroundCheck(ctx)
			}
		}
	}()
	return done
}

func (c *Coordinator) backgroundCheck(ctx context.Context) {
	st := c.State()
	if !st.IsAuthenticated() || st.Tokens == nil {
		return
	}
	if !st.Tokens.NeedsRefresh(c.now(), RefreshBuffer) {
		return
	}
	if _, err := c.refresh(ctx); err != nil {
		c.logger.WithError(err).Error("auto token refresh failed")
	}
}

// EnableBiometrics reports and records whether the device can gate login biometrically.
func (c *Coordinator) EnableBiometrics(ctx context.Context) bool {
	if c.biometric == nil {
		return false
	}
	ok, err := c.biometric.Available(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("biometric availability check failed")
		ok = false
	}
	c.update(func(s *State) { s.BiometricEnabled = ok })
	return ok
}

// LoginWithBiometrics runs Login after a successful biometric prompt. It returns
// false without error when the prompt is declined.
func (c *Coordinator) LoginWithBiometrics(ctx context.Context) (bool, error) {
	if c.biometric == nil {
		return false, nil
	}
	ok, err := c.biometric.Authenticate(ctx, biometricPrompt)
	if err != nil {
		c.logger.WithError(err).Warn("biometric authentication error")
		return false, nil
	}
	if !ok {
		return false, nil
	}
	return true, c.Login(ctx)
}

// LoadCustomer fetches the signed-in customer once and caches it in State.
func (c *Coordinator) LoadCustomer(ctx context.Context) (*domain.Customer, error) {
	c.mu.Lock()
	fetcher := c.customers
	st := c.state.clone()
	c.mu.Unlock()

	if !st.IsAuthenticated() {
		return nil, ErrAuthRequired
	}
	if st.Customer != nil {
		return st.Customer, nil
	}
	if fetcher == nil {
		return nil, errors.New("customer fetcher not configured")
	}
	customer, err := fetcher.Customer(ctx)
	if err != nil {
		return nil, err
	}
	c.update(func(s *State) {
		cp := *customer
		s.Customer = &cp
	})
	return customer, nil
}

func (c *Coordinator) SetCustomer(customer *domain.Customer) {
	c.update(func(s *State) {
		if customer == nil {
			s.Customer = nil
			return
		}
		cp := *customer
		s.Customer = &cp
	})
}
