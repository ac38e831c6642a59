// Package crypto seals short string payloads for storage in client-readable
// cookies. Blobs are AES-256-GCM under a single static process key, encoded
// as hex(iv):hex(ciphertext||tag).
package crypto

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/riskpad/riskpad/internal/util"
)

const blobSeparator = ":"

// PayloadCipher encrypts and decrypts cookie payloads. The key lives in a
// memguard Enclave and is only materialized for the duration of a call.
type PayloadCipher struct {
	key    *memguard.Enclave
	logger *slog.Logger
}

// Option configures a PayloadCipher.
type Option func(*PayloadCipher)

// WithLogger sets the logger used for decryption-failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *PayloadCipher) {
		c.logger = logger
	}
}

// NewPayloadCipher creates a cipher from a base64-encoded 256-bit key.
// A missing or wrong-length key is a configuration error; there is no
// degraded fallback.
func NewPayloadCipher(base64Key string, opts ...Option) (*PayloadCipher, error) {
	if base64Key == "" {
		return nil, fmt.Errorf("payload cipher key is required")
	}
	raw, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decoding payload cipher key: %w", err)
	}
	if len(raw) != util.AESKeySize {
		util.WipeBytes(raw)
		return nil, fmt.Errorf("payload cipher key must be %d bytes, got %d", util.AESKeySize, len(raw))
	}

	c := &PayloadCipher{
		// NewEnclave wipes raw after sealing it.
		key: memguard.NewEnclave(raw),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Encrypt seals plaintext into an ivHex:cipherHex blob. A fresh random IV is
// generated per call, so encrypting the same plaintext twice yields
// different blobs.
func (c *PayloadCipher) Encrypt(plaintext string) (string, error) {
	buf, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening cipher key: %w", err)
	}
	defer buf.Destroy()

	nonce, cipherText, err := util.SealGCM([]byte(plaintext), buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("sealing payload: %w", err)
	}
	return util.HexEncode(nonce) + blobSeparator + util.HexEncode(cipherText), nil
}

// Decrypt opens an ivHex:cipherHex blob. It fails closed: malformed input,
// a wrong key, or tag verification failure all yield ("", false). The
// failure is logged, never surfaced as an error.
func (c *PayloadCipher) Decrypt(blob string) (string, bool) {
	ivHex, cipherHex, found := strings.Cut(blob, blobSeparator)
	if !found || ivHex == "" || cipherHex == "" {
		c.logger.Warn("payload decrypt failed", "reason", "malformed blob")
		return "", false
	}
	nonce, err := util.HexDecode(ivHex)
	if err != nil {
		c.logger.Warn("payload decrypt failed", "reason", "invalid iv hex")
		return "", false
	}
	cipherText, err := util.HexDecode(cipherHex)
	if err != nil {
		c.logger.Warn("payload decrypt failed", "reason", "invalid ciphertext hex")
		return "", false
	}

	buf, err := c.key.Open()
	if err != nil {
		c.logger.Warn("payload decrypt failed", "reason", "opening cipher key", "error", err)
		return "", false
	}
	defer buf.Destroy()

	plain, err := util.OpenGCM(nonce, cipherText, buf.Bytes())
	if err != nil {
		c.logger.Warn("payload decrypt failed", "reason", "gcm open", "error", err)
		return "", false
	}
	return string(plain), true
}
