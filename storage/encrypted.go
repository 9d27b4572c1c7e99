package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt cost for the store key. The key is derived once per process,
	// so this stays well above interactive-login cost.
	DefaultScryptN = 1 << 17
	scryptR        = 8
	scryptP        = 1
	scryptKeyLen   = 32
	saltLen        = 32
)

var ErrDecrypt = errors.New("storage: cannot decrypt value (wrong passphrase?)")

// Encrypted seals every value written to the wrapped backend with
// AES-256-GCM under a scrypt-derived key. The salt lives in the wrapped
// backend under its own key.
type Encrypted struct {
	inner Backend
	aead  cipher.AEAD
}

type sealedValue struct {
	Version    int    `json:"v"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"ciphertext"`
}

type EncryptedOption func(*encryptedConfig)

type encryptedConfig struct {
	scryptN int
}

// WithScryptN overrides the scrypt cost parameter (tests use a small one).
func WithScryptN(n int) EncryptedOption {
	return func(c *encryptedConfig) {
		c.scryptN = n
	}
}

// NewEncrypted loads (or creates) the salt and derives the store key.
// passphrase is not retained.
func NewEncrypted(
	ctx context.Context,
	inner Backend,
	passphrase []byte,
	opts ...EncryptedOption,
) (*Encrypted, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("storage: empty passphrase")
	}
	cfg := encryptedConfig{scryptN: DefaultScryptN}
	for _, opt := range opts {
		opt(&cfg)
	}

	salt, err := loadOrCreateSalt(ctx, inner)
	if err != nil {
		return nil, err
	}

	key, err := scrypt.Key(passphrase, salt, cfg.scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encrypted{inner: inner, aead: aead}, nil
}

func loadOrCreateSalt(ctx context.Context, inner Backend) ([]byte, error) {
	saltKey := Key("meta", "salt")

	salt, err := inner.Get(ctx, saltKey)
	if err == nil && len(salt) == saltLen {
		return salt, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	salt = make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := inner.Set(ctx, saltKey, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var sv sealedValue
	if err := json.Unmarshal(raw, &sv); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", ErrDecrypt)
	}
	nonce, err := base64.StdEncoding.DecodeString(sv.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce", ErrDecrypt)
	}
	ct, err := base64.StdEncoding.DecodeString(sv.CipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext", ErrDecrypt)
	}

	// The key is bound as additional data so values cannot be swapped
	// between keys.
	plain, err := e.aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sv := sealedValue{
		Version:    1,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(e.aead.Seal(nil, nonce, value, []byte(key))),
	}
	raw, err := json.Marshal(sv)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return e.inner.Set(ctx, key, raw)
}

func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}
