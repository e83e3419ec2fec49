package provider

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrEmptyKeySecret = errors.New("provider key secret cannot be empty")
	ErrSealedKey      = errors.New("sealed api key is malformed or was not produced with this secret")
)

// KeyBox seals provider API keys at rest. The stored form is
// base64(nonce || secretbox(key)).
type KeyBox struct {
	key [32]byte
}

func NewKeyBox(secret string) (*KeyBox, error) {
	if secret == "" {
		return nil, ErrEmptyKeySecret
	}

	kb := &KeyBox{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("taskpay provider api keys"))
	if _, err := io.ReadFull(r, kb.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return kb, nil
}

func (k *KeyBox) Seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &k.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (k *KeyBox) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSealedKey
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &k.key)
	if !ok {
		return "", ErrSealedKey
	}
	return string(plain), nil
}
