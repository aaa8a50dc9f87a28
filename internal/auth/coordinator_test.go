package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/oauth"
	"headless-storefront/internal/storage"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

type stubOAuth struct {
	mu          sync.Mutex
	req         oauth.Request
	exchangeErr error
	exchanged   domain.Tokens
	refreshErr  error
	refreshes   int32
	logoutErr   error
	logoutCalls int
	nonce       string
	// onRefresh runs at the start of Refresh.
	onRefresh func()
}

func (s *stubOAuth) NewRequest() (*oauth.Request, error) {
	r := s.req
	return &r, nil
}

func (s *stubOAuth) RedirectURL() string { return "http://127.0.0.1:8765/callback" }

func (s *stubOAuth) Exchange(ctx context.Context, code, verifier string) (domain.Tokens, error) {
	if s.exchangeErr != nil {
		return domain.Tokens{}, s.exchangeErr
	}
	return s.exchanged, nil
}

func (s *stubOAuth) Refresh(ctx context.Context, prev domain.Tokens) (domain.Tokens, error) {
	atomic.AddInt32(&s.refreshes, 1)
	if s.onRefresh != nil {
		s.onRefresh()
	}
	if s.refreshErr != nil {
		return domain.Tokens{}, s.refreshErr
	}
	return domain.Tokens{
		AccessToken:  "shcat_refreshed",
		RefreshToken: "refresh-2",
		IDToken:      prev.IDToken,
		ExpiresAt:    fixedNow.Add(time.Hour).UnixMilli(),
	}, nil
}

func (s *stubOAuth) Logout(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	s.logoutCalls++
	s.mu.Unlock()
	return s.logoutErr
}

type stubBrowser struct {
	result oauth.AuthResult
	err    error
}

func (b stubBrowser) Authorize(ctx context.Context, authURL, redirectURI string) (oauth.AuthResult, error) {
	return b.result, b.err
}

type stubBiometric struct {
	available bool
	approve   bool
	prompt    string
}

func (b *stubBiometric) Available(ctx context.Context) (bool, error) { return b.available, nil }

func (b *stubBiometric) Authenticate(ctx context.Context, prompt string) (bool, error) {
	b.prompt = prompt
	return b.approve, nil
}

func idToken(t *testing.T, nonce string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"nonce": nonce}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return signed
}

func validTokens(t *testing.T, expiresIn time.Duration) domain.Tokens {
	return domain.Tokens{
		AccessToken:  "shcat_access",
		RefreshToken: "refresh-1",
		IDToken:      idToken(t, "nonce-1"),
		ExpiresAt:    fixedNow.Add(expiresIn).UnixMilli(),
	}
}

func newCoordinator(t *testing.T, o *stubOAuth, b oauth.Browser, opts ...Option) (*Coordinator, *TokenStore) {
	t.Helper()
	ts := NewTokenStore(storage.NewMemory())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(o, b, ts, nil, opts...), ts
}

func successBrowser(state string) stubBrowser {
	return stubBrowser{result: oauth.AuthResult{
		Type:   oauth.ResultSuccess,
		Params: map[string]string{"code": "code-1", "state": state},
	}}
}

func TestLogin_Success(t *testing.T) {
	o := &stubOAuth{
		req:       oauth.Request{URL: "https://auth.example/authorize", State: "s1", Nonce: "nonce-1", Verifier: "v1"},
		exchanged: validTokens(t, time.Hour),
	}
	c, ts := newCoordinator(t, o, successBrowser("s1"))

	var seen []Status
	c.Subscribe(func(s State) { seen = append(seen, s.Status) })

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := c.State()
	if !st.IsAuthenticated() || st.IsLoading || st.Error != "" {
		t.Fatalf("expected authenticated idle state, got %+v", st)
	}
	stored, err := ts.Load(context.Background())
	if err != nil || stored == nil || stored.AccessToken != "shcat_access" {
		t.Fatalf("expected tokens persisted, got %+v, %v", stored, err)
	}
	if len(seen) == 0 || seen[0] != StatusAuthenticating {
		t.Fatalf("expected authenticating first, got %v", seen)
	}
}

func TestLogin_DismissPersistsNothing(t *testing.T) {
	o := &stubOAuth{req: oauth.Request{State: "s1", Nonce: "n", Verifier: "v1"}}
	c, ts := newCoordinator(t, o, stubBrowser{result: oauth.AuthResult{Type: oauth.ResultDismiss}})

	err := c.Login(context.Background())
	if err == nil || err.Error() != "Authentication dismiss" {
		t.Fatalf("expected Authentication dismiss, got %v", err)
	}
	st := c.State()
	if st.Status != StatusUnauthenticated || st.Error != "Authentication dismiss" {
		t.Fatalf("unexpected state %+v", st)
	}
	if tokens, _ := ts.Load(context.Background()); tokens != nil {
		t.Fatalf("expected no tokens, got %+v", tokens)
	}
	if _, err := ts.store.Get(context.Background(), keyCodeVerifier); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected verifier cleared, got %v", err)
	}
}

func TestLogin_MissingCode(t *testing.T) {
	o := &stubOAuth{req: oauth.Request{State: "s1"}}
	b := stubBrowser{result: oauth.AuthResult{Type: oauth.ResultSuccess, Params: map[string]string{"state": "s1"}}}
	c, _ := newCoordinator(t, o, b)

	if err := c.Login(context.Background()); !errors.Is(err, ErrNoAuthCode) {
		t.Fatalf("expected ErrNoAuthCode, got %v", err)
	}
}

func TestLogin_StateMismatch(t *testing.T) {
	o := &stubOAuth{req: oauth.Request{State: "s1"}, exchanged: validTokens(t, time.Hour)}
	c, ts := newCoordinator(t, o, successBrowser("other"))

	if err := c.Login(context.Background()); !errors.Is(err, oauth.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}
	if tokens, _ := ts.Load(context.Background()); tokens != nil {
		t.Fatalf("expected no tokens, got %+v", tokens)
	}
}

func TestLogin_NonceMismatch(t *testing.T) {
	o := &stubOAuth{req: oauth.Request{State: "s1", Nonce: "expected"}, exchanged: validTokens(t, time.Hour)}
	c, _ := newCoordinator(t, o, successBrowser("s1"))

	if err := c.Login(context.Background()); !errors.Is(err, oauth.ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch, got %v", err)
	}
}

func TestLogout_SwallowsProviderError(t *testing.T) {
	o := &stubOAuth{logoutErr: errors.New("boom")}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()
	if err := ts.Save(ctx, validTokens(t, time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if o.logoutCalls != 1 {
		t.Fatalf("expected provider logout once, got %d", o.logoutCalls)
	}
	if tokens, _ := ts.Load(ctx); tokens != nil {
		t.Fatalf("expected tokens cleared, got %+v", tokens)
	}
	if c.State().Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", c.State().Status)
	}
}

func TestAccessToken_RefreshesInsideBuffer(t *testing.T) {
	o := &stubOAuth{}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()
	before := validTokens(t, 4*time.Minute)
	if err := ts.Save(ctx, before); err != nil {
		t.Fatalf("save: %v", err)
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "shcat_refreshed" {
		t.Fatalf("expected refreshed token, got %q", token)
	}
	stored, _ := ts.Load(ctx)
	if stored == nil || stored.ExpiresAt <= before.ExpiresAt {
		t.Fatalf("expected later expiry, got %+v", stored)
	}
}

func TestAccessToken_NoRefreshWhenFresh(t *testing.T) {
	o := &stubOAuth{}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()
	if err := ts.Save(ctx, validTokens(t, 30*time.Minute)); err != nil {
		t.Fatalf("save: %v", err)
	}

	token, err := c.AccessToken(ctx)
	if err != nil || token != "shcat_access" {
		t.Fatalf("expected stored token, got %q, %v", token, err)
	}
	if o.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", o.refreshes)
	}
}

func TestAccessToken_RefreshFailureLogsOut(t *testing.T) {
	o := &stubOAuth{refreshErr: errors.New("invalid_grant")}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()
	if err := ts.Save(ctx, validTokens(t, time.Minute)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := c.AccessToken(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if tokens, _ := ts.Load(ctx); tokens != nil {
		t.Fatalf("expected tokens cleared, got %+v", tokens)
	}
	if c.State().IsAuthenticated() {
		t.Fatal("expected unauthenticated state")
	}
}

func TestAccessToken_NoTokens(t *testing.T) {
	c, _ := newCoordinator(t, &stubOAuth{}, stubBrowser{})
	if _, err := c.AccessToken(context.Background()); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestCheckStatus(t *testing.T) {
	t.Run("no tokens", func(t *testing.T) {
		c, _ := newCoordinator(t, &stubOAuth{}, stubBrowser{})
		if err := c.CheckStatus(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st := c.State(); st.IsAuthenticated() || st.IsLoading {
			t.Fatalf("expected idle unauthenticated, got %+v", st)
		}
	})

	t.Run("fresh tokens", func(t *testing.T) {
		o := &stubOAuth{}
		c, ts := newCoordinator(t, o, stubBrowser{})
		_ = ts.Save(context.Background(), validTokens(t, time.Hour))
		if err := c.CheckStatus(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !c.State().IsAuthenticated() || o.refreshes != 0 {
			t.Fatalf("expected authenticated without refresh, got %+v (%d refreshes)", c.State(), o.refreshes)
		}
	})

	t.Run("due tokens refresh", func(t *testing.T) {
		o := &stubOAuth{}
		c, ts := newCoordinator(t, o, stubBrowser{})
		_ = ts.Save(context.Background(), validTokens(t, 2*time.Minute))
		if err := c.CheckStatus(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		st := c.State()
		if !st.IsAuthenticated() || st.Tokens.AccessToken != "shcat_refreshed" {
			t.Fatalf("expected refreshed session, got %+v", st)
		}
	})

	t.Run("refresh failure", func(t *testing.T) {
		o := &stubOAuth{refreshErr: errors.New("expired")}
		c, ts := newCoordinator(t, o, stubBrowser{})
		_ = ts.Save(context.Background(), validTokens(t, 2*time.Minute))
		if err := c.CheckStatus(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st := c.State(); st.IsAuthenticated() || st.IsLoading {
			t.Fatalf("expected idle unauthenticated, got %+v", st)
		}
	})
}

func TestBackgroundCheck(t *testing.T) {
	o := &stubOAuth{}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()
	_ = ts.Save(ctx, validTokens(t, 10*time.Minute))
	if err := c.CheckStatus(ctx); err != nil {
		t.Fatalf("check status: %v", err)
	}

	c.backgroundCheck(ctx)
	if o.refreshes != 0 {
		t.Fatalf("expected no refresh at 10 minutes, got %d", o.refreshes)
	}

	c.now = func() time.Time { return fixedNow.Add(6 * time.Minute) }
	c.backgroundCheck(ctx)
	if o.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", o.refreshes)
	}
}

func TestBiometrics(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		bio := &stubBiometric{}
		c, _ := newCoordinator(t, &stubOAuth{}, stubBrowser{}, WithBiometric(bio))
		if c.EnableBiometrics(context.Background()) {
			t.Fatal("expected biometrics disabled")
		}
	})

	t.Run("declined prompt skips login", func(t *testing.T) {
		bio := &stubBiometric{available: true}
		c, _ := newCoordinator(t, &stubOAuth{}, stubBrowser{}, WithBiometric(bio))
		if !c.EnableBiometrics(context.Background()) || !c.State().BiometricEnabled {
			t.Fatal("expected biometrics enabled")
		}
		ok, err := c.LoginWithBiometrics(context.Background())
		if ok || err != nil {
			t.Fatalf("expected false, nil, got %v, %v", ok, err)
		}
		if bio.prompt != "Authenticate to access your account" {
			t.Fatalf("unexpected prompt %q", bio.prompt)
		}
	})

	t.Run("approved prompt logs in", func(t *testing.T) {
		bio := &stubBiometric{available: true, approve: true}
		o := &stubOAuth{req: oauth.Request{State: "s1", Nonce: "nonce-1"}, exchanged: validTokens(t, time.Hour)}
		c, _ := newCoordinator(t, o, successBrowser("s1"), WithBiometric(bio))
		ok, err := c.LoginWithBiometrics(context.Background())
		if !ok || err != nil {
			t.Fatalf("expected true, nil, got %v, %v", ok, err)
		}
		if !c.State().IsAuthenticated() {
			t.Fatal("expected authenticated")
		}
	})
}

type stubFetcher struct {
	calls int
}

func (f *stubFetcher) Customer(ctx context.Context) (*domain.Customer, error) {
	f.calls++
	return &domain.Customer{ID: "gid://shopify/Customer/1", Email: "a@example.com"}, nil
}

func TestLoadCustomer_CachesInState(t *testing.T) {
	o := &stubOAuth{}
	c, ts := newCoordinator(t, o, stubBrowser{})
	ctx := context.Background()

	if _, err := c.LoadCustomer(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}

	_ = ts.Save(ctx, validTokens(t, time.Hour))
	_ = c.CheckStatus(ctx)
	f := &stubFetcher{}
	c.SetCustomerFetcher(f)

	for i := 0; i < 2; i++ {
		customer, err := c.LoadCustomer(ctx)
		if err != nil || customer.Email != "a@example.com" {
			t.Fatalf("unexpected customer %+v, %v", customer, err)
		}
	}
	if f.calls != 1 {
		t.Fatalf("expected one fetch, got %d", f.calls)
	}
}

// ctxStore fails writes once the caller's context is done, like a SQL store would.
type ctxStore struct {
	*storage.Memory
	deleteErr error
}

func (s *ctxStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Memory.Delete(ctx, key)
}

func TestRefreshFailure_ClearErrorStillLogsOut(t *testing.T) {
	store := &ctxStore{Memory: storage.NewMemory(), deleteErr: errors.New("disk full")}
	ts := NewTokenStore(store)
	o := &stubOAuth{refreshErr: errors.New("invalid_grant")}
	c := New(o, stubBrowser{}, ts, nil, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	if err := ts.Save(ctx, validTokens(t, 4*time.Minute)); err != nil {
		t.Fatalf("save tokens: %v", err)
	}

	_, err := c.AccessToken(ctx)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	st := c.State()
	if st.Status != StatusUnauthenticated || st.IsAuthenticated() || st.Tokens != nil || st.IsLoading {
		t.Fatalf("expected unauthenticated state, got %+v", st)
	}
}

func TestLogout_ClearErrorStillEndsSession(t *testing.T) {
	store := &ctxStore{Memory: storage.NewMemory(), deleteErr: errors.New("disk full")}
	ts := NewTokenStore(store)
	c := New(&stubOAuth{}, stubBrowser{}, ts, nil, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	_ = ts.Save(ctx, validTokens(t, time.Hour))
	if err := c.CheckStatus(ctx); err != nil {
		t.Fatalf("check status: %v", err)
	}

	if err := c.Logout(ctx); err == nil {
		t.Fatal("expected clear error to be returned")
	}
	st := c.State()
	if st.Status != StatusUnauthenticated || st.Tokens != nil || st.Error == "" {
		t.Fatalf("expected unauthenticated state with error, got %+v", st)
	}
}

func TestRefresh_CancelledContextStillClearsTokens(t *testing.T) {
	store := &ctxStore{Memory: storage.NewMemory()}
	ts := NewTokenStore(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := &stubOAuth{refreshErr: context.Canceled, onRefresh: cancel}
	c := New(o, stubBrowser{}, ts, nil, WithClock(func() time.Time { return fixedNow }))
	if err := ts.Save(context.Background(), validTokens(t, 4*time.Minute)); err != nil {
		t.Fatalf("save tokens: %v", err)
	}

	if _, err := c.AccessToken(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if st := c.State(); st.Status != StatusUnauthenticated || st.Tokens != nil {
		t.Fatalf("expected unauthenticated state, got %+v", st)
	}
	stored, err := ts.Load(context.Background())
	if err != nil || stored != nil {
		t.Fatalf("expected stored tokens cleared, got %+v, %v", stored, err)
	}
}

func TestStartBackgroundRefresh(t *testing.T) {
	var nowMs atomic.Int64
	nowMs.Store(fixedNow.UnixMilli())
	clock := func() time.Time { return time.UnixMilli(nowMs.Load()) }

	o := &stubOAuth{}
	ts := NewTokenStore(storage.NewMemory())
	c := New(o, stubBrowser{}, ts, nil, WithClock(clock), WithRefreshInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = ts.Save(ctx, validTokens(t, time.Hour))
	if err := c.CheckStatus(ctx); err != nil {
		t.Fatalf("check status: %v", err)
	}

	done := c.StartBackgroundRefresh(ctx)

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&o.refreshes); got != 0 {
		t.Fatalf("expected no refresh while tokens are fresh, got %d", got)
	}

	// 4 minutes left on the original tokens.
	nowMs.Store(fixedNow.Add(56 * time.Minute).UnixMilli())
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&o.refreshes) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the ticker to refresh the tokens")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the refresh loop to stop after cancel")
	}
}
