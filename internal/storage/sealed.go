package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// ErrCorrupt is returned when a sealed value cannot be opened with the store key.
var ErrCorrupt = errors.New("storage: sealed value corrupt or key mismatch")

// Sealed encrypts values with NaCl secretbox before handing them to the
// underlying store. Keys stay in clear text.
type Sealed struct {
	inner Store
	key   [keySize]byte
}

func NewSealed(inner Store, key [keySize]byte) *Sealed {
	return &Sealed{inner: inner, key: key}
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	box, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(box))
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// NewKey returns a fresh random sealing key.
func NewKey() ([keySize]byte, error) {
	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, err
	}
	return key, nil
}

// LoadOrCreateKey reads the sealing key at path, creating it with owner-only
// permissions when absent.
func LoadOrCreateKey(path string) ([keySize]byte, error) {
	var key [keySize]byte
	data, err := os.ReadFile(path)
	if err == nil {
		decoded, err := base64.RawURLEncoding.DecodeString(string(data))
		if err != nil || len(decoded) != keySize {
			return key, fmt.Errorf("key file %s: %w", path, ErrCorrupt)
		}
		copy(key[:], decoded)
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return key, fmt.Errorf("read key file: %w", err)
	}
	key, err = NewKey()
	if err != nil {
		return key, fmt.Errorf("generate key: %w", err)
	}
	if err := os.WriteFile(path, []byte(base64.RawURLEncoding.EncodeToString(key[:])), 0o600); err != nil {
		return key, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}
