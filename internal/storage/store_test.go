package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headless-storefront/internal/db"
	"headless-storefront/internal/migrate"
)

// exerciseStore runs the Store contract against any implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "shopify_cart_id")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "shopify_cart_id", "gid://shopify/Cart/1"))
	v, err := s.Get(ctx, "shopify_cart_id")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/1", v)

	require.NoError(t, s.Set(ctx, "shopify_cart_id", "gid://shopify/Cart/2"))
	v, err = s.Get(ctx, "shopify_cart_id")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/2", v)

	require.NoError(t, s.Delete(ctx, "shopify_cart_id"))
	_, err = s.Get(ctx, "shopify_cart_id")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, s.Delete(ctx, "shopify_cart_id"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLite(ctx, path, "device-a", nil)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	require.NoError(t, s.Set(ctx, "b", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestSQLite_DeviceScoped(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	a, err := OpenSQLite(ctx, path, "device-a", nil)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "shopify_cart_id", "cart-a"))
	require.NoError(t, a.Close())

	b, err := OpenSQLite(ctx, path, "device-b", nil)
	require.NoError(t, err)
	defer b.Close()
	_, err = b.Get(ctx, "shopify_cart_id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealed_RoundTripAndOpaqueAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	key, err := NewKey()
	require.NoError(t, err)
	sealed := NewSealed(inner, key)

	exerciseStore(t, sealed)

	require.NoError(t, sealed.Set(ctx, "customer_access_token", "shcat_secret"))
	raw, err := inner.Get(ctx, "customer_access_token")
	require.NoError(t, err)
	assert.NotContains(t, raw, "shcat_secret")

	v, err := sealed.Get(ctx, "customer_access_token")
	require.NoError(t, err)
	assert.Equal(t, "shcat_secret", v)
}

func TestSealed_WrongKey(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	k1, _ := NewKey()
	k2, _ := NewKey()
	require.NoError(t, NewSealed(inner, k1).Set(ctx, "k", "v"))

	_, err := NewSealed(inner, k2).Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, inner.Set(ctx, "k", "not base64!"))
	_, err = NewSealed(inner, k1).Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seal.key")
	k1, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	k2, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, nil)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, migrate.Apply(ctx, pool))

	s := NewPostgres(pool, "test-device")
	_ = s.Delete(ctx, "shopify_cart_id")
	exerciseStore(t, s)
}
