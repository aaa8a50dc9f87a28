package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/storage"
)

const (
	keyAccessToken  = "customer_access_token"
	keyRefreshToken = "customer_refresh_token"
	keyIDToken      = "customer_id_token"
	keyExpiresAt    = "customer_expires_at"
	keyCodeVerifier = "customer_code_verifier"
)

// TokenStore persists the token quadruple in secure storage.
type TokenStore struct {
	store storage.Store
}

func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Load returns nil, nil when any of the four token fields is missing.
func (s *TokenStore) Load(ctx context.Context) (*domain.Tokens, error) {
	var vals [4]string
	for i, key := range []string{keyAccessToken, keyRefreshToken, keyIDToken, keyExpiresAt} {
		v, err := s.store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && v == "") {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		vals[i] = v
	}
	expiresAt, err := strconv.ParseInt(vals[3], 10, 64)
	if err != nil {
		return nil, nil
	}
	return &domain.Tokens{
		AccessToken:  vals[0],
		RefreshToken: vals[1],
		IDToken:      vals[2],
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *TokenStore) Save(ctx context.Context, t domain.Tokens) error {
	pairs := [][2]string{
		{keyAccessToken, t.AccessToken},
		{keyRefreshToken, t.RefreshToken},
		{keyIDToken, t.IDToken},
		{keyExpiresAt, strconv.FormatInt(t.ExpiresAt, 10)},
	}
	for _, p := range pairs {
		if err := s.store.Set(ctx, p[0], p[1]); err != nil {
			return fmt.Errorf("save %s: %w", p[0], err)
		}
	}
	return nil
}

func (s *TokenStore) SaveVerifier(ctx context.Context, verifier string) error {
	return s.store.Set(ctx, keyCodeVerifier, verifier)
}

func (s *TokenStore) ClearVerifier(ctx context.Context) error {
	return s.store.Delete(ctx, keyCodeVerifier)
}

// Clear removes the tokens and any pending verifier. Every key is attempted.
func (s *TokenStore) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyIDToken, keyExpiresAt, keyCodeVerifier} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
