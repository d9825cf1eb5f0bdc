package secrets

import (
	"errors"
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox(testKeyHex)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}

	sealed, err := box.Seal("sk-proj-secret")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "sk-proj-secret" {
		t.Fatalf("ciphertext equals plaintext")
	}
	if strings.Contains(sealed, "secret") {
		t.Fatalf("ciphertext leaks plaintext: %q", sealed)
	}

	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "sk-proj-secret" {
		t.Fatalf("round trip got %q", plain)
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	box, _ := NewBox(testKeyHex)
	a, _ := box.Seal("same")
	b, _ := box.Seal("same")
	if a == b {
		t.Fatalf("two seals of the same value must differ")
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	box, _ := NewBox(testKeyHex)
	sealed, _ := box.Seal("value")

	raw := []byte(sealed)
	if raw[len(raw)-1] == 'f' {
		raw[len(raw)-1] = '0'
	} else {
		raw[len(raw)-1] = 'f'
	}
	if _, err := box.Open(string(raw)); err == nil {
		t.Fatalf("tampered ciphertext opened without error")
	}
}

func TestNewBoxBadKey(t *testing.T) {
	if _, err := NewBox(strings.Repeat("ab", 32)); err != nil {
		t.Fatalf("32-byte key rejected: %v", err)
	}

	// not hex, truncated hex, and a 16-byte key: AES-256 only
	for _, keyHex := range []string{"abc", "zz", strings.Repeat("ab", 16)} {
		if _, err := NewBox(keyHex); !errors.Is(err, ErrBadKey) {
			t.Fatalf("key %q: expected ErrBadKey, got %v", keyHex, err)
		}
	}
}

func TestEmptyKeyIsPassThrough(t *testing.T) {
	box, err := NewBox("")
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	sealed, _ := box.Seal("plain")
	if sealed != "plain" {
		t.Fatalf("pass-through seal changed value: %q", sealed)
	}
	opened, _ := box.Open("plain")
	if opened != "plain" {
		t.Fatalf("pass-through open changed value: %q", opened)
	}
}
