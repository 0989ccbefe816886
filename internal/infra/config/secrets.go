package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// SecretPrefix marks a config value sealed with SealSecret.
const SecretPrefix = "enc:"

// PassphraseEnv names the variable holding the passphrase for sealed values.
const PassphraseEnv = "SHELLMATE_CONFIG_KEY"

var (
	ErrSecretFormat = errors.New("malformed sealed secret")
	ErrSecretKey    = errors.New("wrong passphrase or corrupted secret")
	ErrNoPassphrase = errors.New(PassphraseEnv + " is not set")
)

// Argon2id parameters and sizes for sealed secrets.
const (
	saltSize       = 16
	argonTime      = 1
	argonMemoryKiB = 64 * 1024
	argonThreads   = 4
	secretKeySize  = 32
)

var secretEncoding = base64.RawURLEncoding

// IsSealed reports whether v carries the sealed-secret prefix.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, SecretPrefix)
}

// SealSecret encrypts plaintext with AES-256-GCM under a key derived from
// passphrase with Argon2id. The result is "enc:" followed by the unpadded
// base64url encoding of salt, nonce and ciphertext.
func SealSecret(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := secretAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	blob := append(salt, nonce...)
	blob = aead.Seal(blob, nonce, []byte(plaintext), nil)
	return SecretPrefix + secretEncoding.EncodeToString(blob), nil
}

// OpenSecret reverses SealSecret.
func OpenSecret(sealed, passphrase string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrSecretFormat
	}
	blob, err := secretEncoding.DecodeString(strings.TrimPrefix(sealed, SecretPrefix))
	if err != nil || len(blob) < saltSize {
		return "", ErrSecretFormat
	}
	salt, rest := blob[:saltSize], blob[saltSize:]

	aead, err := secretAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}
	if len(rest) < aead.NonceSize() {
		return "", ErrSecretFormat
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSecretKey
	}
	return string(plaintext), nil
}

func secretAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKiB, argonThreads, secretKeySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// openSecrets replaces a sealed llm.api_key with its plaintext. A sealed
// key with no passphrase available is an error rather than a credential.
func openSecrets(cfg *Config, passphrase string) error {
	if !IsSealed(cfg.LLM.APIKey) {
		return nil
	}
	if passphrase == "" {
		return fmt.Errorf("llm.api_key: %w", ErrNoPassphrase)
	}
	plain, err := OpenSecret(cfg.LLM.APIKey, passphrase)
	if err != nil {
		return fmt.Errorf("llm.api_key: %w", err)
	}
	cfg.LLM.APIKey = plain
	return nil
}
