// Package vault encrypts gateway secret keys at rest with AES-256-GCM.
//
// Packed values have the form hex(nonce):hex(tag):hex(ciphertext) so they can
// be stored as opaque text and decoded independently of one another.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/frahmantamala/pix-donation/internal"
)

const (
	KeySize   = 32
	NonceSize = 16
	TagSize   = 16

	separator = ":"
)

var (
	ErrIntegrity  = errors.New("credential integrity check failed")
	ErrInvalidKey = errors.New("encryption key must be exactly 32 bytes")
	ErrEmptyValue = errors.New("refusing to encrypt an empty value")
)

// devKeySeed feeds the HKDF derivation of the development key. It is public
// knowledge; anything encrypted with it is effectively plaintext.
var devKeySeed = []byte("pix-donation insecure development key")

type Vault struct {
	aead     cipher.AEAD
	insecure bool
}

// New builds a vault from a 32-byte key. Outside production a missing or
// malformed key falls back to a deterministic development key and logs a
// warning; in production it is an error.
func New(key string, env string, logger *slog.Logger) (*Vault, error) {
	keyBytes := []byte(key)
	insecure := false

	if len(keyBytes) != KeySize {
		if env == internal.EnvProduction {
			return nil, fmt.Errorf("%w (got %d bytes)", ErrInvalidKey, len(keyBytes))
		}

		derived, err := developmentKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive development key: %w", err)
		}
		logger.Warn("INSECURE: encryption key missing or not 32 bytes, using development key",
			"environment", env,
			"key_length", len(keyBytes))
		keyBytes = derived
		insecure = true
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	return &Vault{aead: aead, insecure: insecure}, nil
}

func developmentKey() ([]byte, error) {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, devKeySeed, nil, []byte("vault/aes-256-gcm"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Insecure reports whether the vault is running on the development key.
func (v *Vault) Insecure() bool {
	return v.insecure
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyValue
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt returns an IntegrityError for anything that is not an unmodified
// value produced by Encrypt under the same key.
func (v *Vault) Decrypt(packed string) (string, error) {
	plaintext, err := v.open(packed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// WithDecrypted decrypts packed and hands the plaintext to fn. The decrypted
// buffer is zeroed when fn returns; callers must not retain the secret.
func (v *Vault) WithDecrypted(packed string, fn func(secret string) error) error {
	plaintext, err := v.open(packed)
	if err != nil {
		return err
	}
	defer clear(plaintext)

	return fn(string(plaintext))
}

func (v *Vault) open(packed string) ([]byte, error) {
	parts := strings.Split(packed, separator)
	if len(parts) != 3 {
		return nil, integrityError("malformed value")
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != NonceSize {
		return nil, integrityError("invalid nonce")
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != TagSize {
		return nil, integrityError("invalid tag")
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil || len(ciphertext) == 0 {
		return nil, integrityError("invalid ciphertext")
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, integrityError("authentication failed")
	}
	return plaintext, nil
}

func integrityError(reason string) *internal.AppError {
	return internal.NewIntegrityError("stored credential failed integrity check", fmt.Errorf("%w: %s", ErrIntegrity, reason))
}
