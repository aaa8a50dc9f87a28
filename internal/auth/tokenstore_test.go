package auth

import (
	"context"
	"testing"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/storage"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := NewTokenStore(storage.NewMemory())
	want := domain.Tokens{AccessToken: "shcat_a", RefreshToken: "r", IDToken: "i", ExpiresAt: 1_700_000_000_000}

	if err := ts.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := ts.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestTokenStore_PartialIsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	ts := NewTokenStore(mem)
	_ = ts.Save(ctx, domain.Tokens{AccessToken: "shcat_a", RefreshToken: "r", IDToken: "i", ExpiresAt: 1})
	_ = mem.Delete(ctx, keyIDToken)

	got, err := ts.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil, got %+v, %v", got, err)
	}

	_ = mem.Set(ctx, keyIDToken, "i")
	_ = mem.Set(ctx, keyExpiresAt, "soon")
	got, err = ts.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected nil for unparsable expiry, got %+v, %v", got, err)
	}
}

func TestTokenStore_ClearRemovesVerifier(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	ts := NewTokenStore(mem)
	_ = ts.SaveVerifier(ctx, "v")
	_ = ts.Save(ctx, domain.Tokens{AccessToken: "a", RefreshToken: "r", IDToken: "i", ExpiresAt: 1})

	if err := ts.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := mem.Get(ctx, keyCodeVerifier); err != storage.ErrNotFound {
		t.Fatalf("expected verifier removed, got %v", err)
	}
}
