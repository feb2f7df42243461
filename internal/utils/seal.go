package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// Upstream API tokens are stored sealed (encrypted and authenticated) and
// only opened when a request needs them.  XChaCha20-Poly1305 is used with a
// random nonce prepended to the ciphertext; the whole blob is base64-encoded
// so it fits in a TEXT column.

// ErrSealedValue is returned when a stored blob cannot be opened, either
// because the key changed or the value was tampered with.
var ErrSealedValue = errors.New("cannot open sealed value")

// Seal encrypts plain with the given 32-byte key and returns a base64 blob.
func Seal(key []byte, plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a blob produced by Seal.
func Open(key []byte, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealedValue
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrSealedValue
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plain), nil
}
