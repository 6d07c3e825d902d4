// Package signing computes the keyed request signatures required by payment gateways.
package signing

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrEmptyKey is returned when a signer is built without a shared secret.
var ErrEmptyKey = errors.New("signing key is empty")

// Signer produces base64-encoded HMAC-SHA512 digests with a shared secret.
type Signer struct {
	key []byte
}

// NewHMACSHA512 builds a signer for the given shared secret.
func NewHMACSHA512(key string) (*Signer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign returns base64(HMAC-SHA512(key, payload)).
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha512.New, s.key)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload in constant time.
func (s *Signer) Verify(payload, signature string) bool {
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, s.key)
	mac.Write([]byte(payload))
	return hmac.Equal(mac.Sum(nil), expected)
}
