package util

import (
	"bytes"
	"testing"
)

func TestSealOpenGCM(t *testing.T) {
	key, err := RandomBytes(AESKeySize)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	plain := []byte("epoch:1735689600")

	nonce, cipherText, err := SealGCM(plain, key)
	if err != nil {
		t.Fatalf("SealGCM failed: %v", err)
	}
	if len(nonce) != GCMNonceSize {
		t.Errorf("expected nonce length %d, got %d", GCMNonceSize, len(nonce))
	}

	got, err := OpenGCM(nonce, cipherText, key)
	if err != nil {
		t.Fatalf("OpenGCM failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("expected plaintext %q, got %q", plain, got)
	}
}

func TestSealGCM_InvalidKeySize(t *testing.T) {
	if _, _, err := SealGCM([]byte("data"), []byte("short")); err == nil {
		t.Error("SealGCM with short key expected error, got nil")
	}
	if _, err := OpenGCM(make([]byte, GCMNonceSize), []byte("ct"), []byte("short")); err == nil {
		t.Error("OpenGCM with short key expected error, got nil")
	}
}

func TestOpenGCM_Tampered(t *testing.T) {
	key, _ := RandomBytes(AESKeySize)
	nonce, cipherText, err := SealGCM([]byte("payload"), key)
	if err != nil {
		t.Fatalf("SealGCM failed: %v", err)
	}
	cipherText[0] ^= 0x01
	if _, err := OpenGCM(nonce, cipherText, key); err == nil {
		t.Error("OpenGCM on tampered ciphertext expected error, got nil")
	}
}

func TestOpenGCM_WrongNonceSize(t *testing.T) {
	key, _ := RandomBytes(AESKeySize)
	if _, err := OpenGCM([]byte("tiny"), []byte("ct"), key); err == nil {
		t.Error("OpenGCM with short nonce expected error, got nil")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "user@example.com", "user@example.com"},
		{"Upper", "User@Example.COM", "user@example.com"},
		{"Whitespace", "  user@example.com \n", "user@example.com"},
		{"Fullwidth", "ｕser@example.com", "user@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.in); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWipeBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	WipeBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d not wiped: %d", i, v)
		}
	}
}

func TestCopyBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := CopyBytes(src)
	if !bytes.Equal(src, dst) {
		t.Fatalf("copy differs: %v != %v", dst, src)
	}
	src[0] = 9
	if dst[0] != 1 {
		t.Errorf("copy shares backing array with source")
	}
}
