package config

import (
	"errors"
	"strings"
	"testing"
)

func TestSealOpenSecret(t *testing.T) {
	sealed, err := SealSecret("sk-secret", "passphrase")
	if err != nil {
		t.Fatalf("SealSecret: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("sealed = %q, want %s prefix", sealed, SecretPrefix)
	}
	if strings.Contains(sealed, "sk-secret") {
		t.Error("sealed value leaks plaintext")
	}

	again, err := SealSecret("sk-secret", "passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if again == sealed {
		t.Error("sealing twice should use a fresh salt and nonce")
	}

	got, err := OpenSecret(sealed, "passphrase")
	if err != nil {
		t.Fatalf("OpenSecret: %v", err)
	}
	if got != "sk-secret" {
		t.Errorf("got %q", got)
	}
}

func TestOpenSecretErrors(t *testing.T) {
	sealed, err := SealSecret("sk-secret", "passphrase")
	if err != nil {
		t.Fatal(err)
	}
	blob, err := secretEncoding.DecodeString(strings.TrimPrefix(sealed, SecretPrefix))
	if err != nil {
		t.Fatal(err)
	}
	blob[len(blob)-1] ^= 0xff
	tampered := SecretPrefix + secretEncoding.EncodeToString(blob)

	tests := []struct {
		name   string
		sealed string
		pass   string
		want   error
	}{
		{"wrong passphrase", sealed, "nope", ErrSecretKey},
		{"tampered", tampered, "passphrase", ErrSecretKey},
		{"no prefix", strings.TrimPrefix(sealed, SecretPrefix), "passphrase", ErrSecretFormat},
		{"not base64", SecretPrefix + "!!!", "passphrase", ErrSecretFormat},
		{"too short", SecretPrefix + "AAAA", "passphrase", ErrSecretFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenSecret(tt.sealed, tt.pass); !errors.Is(err, tt.want) {
				t.Errorf("OpenSecret error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenSecretsLeavesPlainKey(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.APIKey = "sk-plain"
	if err := openSecrets(cfg, ""); err != nil {
		t.Fatalf("openSecrets: %v", err)
	}
	if cfg.LLM.APIKey != "sk-plain" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
}
