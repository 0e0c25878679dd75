// Credential encryption for channel descriptors at rest.
//
// Algorithm: AES-256-GCM, 12-byte random nonce per encryption, key
// derived from a cluster-wide secret via HKDF-SHA256. Channel
// `input.headers` values whose key name matches
// token|key|secret|authorization are encrypted before the channel
// descriptor is persisted to its YAML file by `mobasherctl channels add`.
package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	credentialEncryptionSalt = "mobasher-channel-credentials"
	credentialEncryptionInfo = "credential-encryption-v1"
	aesKeySize               = 32
	gcmNonceSize             = 12
)

var (
	ErrEmptySecret        = errors.New("credential key cannot be empty")
	ErrEmptyPlaintext     = errors.New("plaintext cannot be empty")
	ErrEmptyCiphertext    = errors.New("ciphertext cannot be empty")
	ErrDecryptionFailed   = errors.New("decryption failed: invalid ciphertext or authentication tag")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext format")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// CredentialEncryptor provides AES-256-GCM encryption for channel
// credentials (API keys, tokens) embedded in channel descriptors.
type CredentialEncryptor struct {
	cipher cipher.AEAD
}

// NewCredentialEncryptor derives a 256-bit key from credKey (typically
// MOBASHER_CRED_KEY) via HKDF-SHA256 and builds an AES-GCM cipher.
func NewCredentialEncryptor(credKey string) (*CredentialEncryptor, error) {
	if credKey == "" {
		return nil, ErrEmptySecret
	}

	key, err := deriveKey(credKey)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &CredentialEncryptor{cipher: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag).
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := e.cipher.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *CredentialEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed: %s", ErrInvalidCiphertext, err.Error())
	}

	minLength := gcmNonceSize + 1 + e.cipher.Overhead()
	if len(data) < minLength {
		return "", ErrCiphertextTooShort
	}

	nonce := data[:gcmNonceSize]
	encryptedData := data[gcmNonceSize:]

	plaintext, err := e.cipher.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// MaskCredential returns "****...abc1" style masking for display in `channels list`.
func MaskCredential(credential string) string {
	if credential == "" {
		return ""
	}
	if len(credential) <= 4 {
		return "****"
	}
	return "****..." + credential[len(credential)-4:]
}

func deriveKey(credKey string) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, []byte(credKey), []byte(credentialEncryptionSalt), []byte(credentialEncryptionInfo))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("read HKDF output: %w", err)
	}
	return key, nil
}

// ValidateEncryptionSetup performs a round-trip encrypt/decrypt sanity check.
func (e *CredentialEncryptor) ValidateEncryptionSetup() error {
	const probe = "encryption-validation-test"

	encrypted, err := e.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("encryption test failed: %w", err)
	}

	decrypted, err := e.Decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("decryption test failed: %w", err)
	}

	if decrypted != probe {
		return errors.New("round-trip validation failed: data mismatch")
	}

	return nil
}

// isCredentialKey reports whether a channel header key name looks like a
// credential (api key/token/secret/authorization), case-insensitively.
// EncryptChannelHeaders replaces credential-looking header values
// (matched by isCredentialKey) with their ciphertext, in place. Called by
// `mobasherctl channels add` before a channel descriptor is written to
// disk.
func (e *CredentialEncryptor) EncryptChannelHeaders(headers map[string]string) error {
	for name, value := range headers {
		if !isCredentialKey(name) || value == "" {
			continue
		}
		ciphertext, err := e.Encrypt(value)
		if err != nil {
			return fmt.Errorf("encrypt header %q: %w", name, err)
		}
		headers[name] = ciphertext
	}
	return nil
}

// DecryptChannelHeaders reverses EncryptChannelHeaders, for use by the
// capture supervisor before building transcoder command headers.
func (e *CredentialEncryptor) DecryptChannelHeaders(headers map[string]string) error {
	for name, value := range headers {
		if !isCredentialKey(name) || value == "" {
			continue
		}
		plaintext, err := e.Decrypt(value)
		if err != nil {
			return fmt.Errorf("decrypt header %q: %w", name, err)
		}
		headers[name] = plaintext
	}
	return nil
}

func isCredentialKey(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"token", "key", "secret", "authorization"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
