package config

import "testing"

func TestCredentialEncryptorRoundTrip(t *testing.T) {
	enc, err := NewCredentialEncryptor("cluster-secret")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor: %v", err)
	}

	ciphertext, err := enc.Encrypt("super-secret-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext == "super-secret-token" {
		t.Fatal("ciphertext must not equal plaintext")
	}

	plaintext, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "super-secret-token" {
		t.Fatalf("round trip mismatch: got %q", plaintext)
	}
}

func TestNewCredentialEncryptorEmptySecret(t *testing.T) {
	if _, err := NewCredentialEncryptor(""); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestEncryptChannelHeaders(t *testing.T) {
	enc, err := NewCredentialEncryptor("cluster-secret")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor: %v", err)
	}

	headers := map[string]string{
		"X-Api-Key":     "abc123",
		"Authorization": "Bearer xyz",
		"X-Channel-Id":  "bbc1",
	}

	if err := enc.EncryptChannelHeaders(headers); err != nil {
		t.Fatalf("EncryptChannelHeaders: %v", err)
	}

	if headers["X-Channel-Id"] != "bbc1" {
		t.Errorf("non-credential header should be untouched")
	}
	if headers["X-Api-Key"] == "abc123" {
		t.Errorf("credential header should be encrypted")
	}

	if err := enc.DecryptChannelHeaders(headers); err != nil {
		t.Fatalf("DecryptChannelHeaders: %v", err)
	}
	if headers["X-Api-Key"] != "abc123" {
		t.Errorf("decrypted header mismatch: %q", headers["X-Api-Key"])
	}
}

func TestMaskCredential(t *testing.T) {
	if got := MaskCredential("abcdef1234"); got != "****...1234" {
		t.Errorf("unexpected mask: %q", got)
	}
	if got := MaskCredential("ab"); got != "****" {
		t.Errorf("unexpected short mask: %q", got)
	}
}
