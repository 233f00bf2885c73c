package cloak

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Ciphertext format versions. The version byte is the first byte of every
// ciphertext and is authenticated as associated data.
const (
	versionAESGCM    byte = 0x01
	versionXChaCha20 byte = 0x02
)

// derivedKeySize is the size of keys derived from key and salt.
const derivedKeySize = 32

// Encryptor handles encryption/decryption operations.
type Encryptor interface {
	// Encrypt encrypts plaintext and returns ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext and returns plaintext.
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Engine implements authenticated encryption for field values.
//
// Keys for every supported scheme are derived once from key and salt, so an
// Engine decrypts ciphertext written under any scheme while encrypting with
// its primary one. Engine is safe for concurrent use.
type Engine struct {
	primary byte
	aeads   map[byte]cipher.AEAD
}

// NewEngine returns an Engine encrypting with algo.
// Key and salt must be non-empty; they are stretched with HKDF-SHA256.
func NewEngine(key, salt []byte, algo Algorithm) (*Engine, error) {
	if len(key) == 0 {
		return nil, newConfigError(ErrMissingKey, "", "")
	}
	if len(salt) == 0 {
		return nil, newConfigError(ErrMissingSalt, "", "")
	}

	var primary byte
	switch algo {
	case AlgorithmAESGCM, "":
		primary = versionAESGCM
	case AlgorithmXChaCha20:
		primary = versionXChaCha20
	default:
		return nil, newConfigError(ErrInvalidOption, "", string(algo))
	}

	gcmKey, err := deriveKey(key, salt, AlgorithmAESGCM)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(gcmKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	chachaKey, err := deriveKey(key, salt, AlgorithmXChaCha20)
	if err != nil {
		return nil, err
	}
	xchacha, err := chacha20poly1305.NewX(chachaKey)
	if err != nil {
		return nil, err
	}

	return &Engine{
		primary: primary,
		aeads: map[byte]cipher.AEAD{
			versionAESGCM:    gcm,
			versionXChaCha20: xchacha,
		},
	}, nil
}

// deriveKey derives a per-scheme key so the two schemes never share key
// material.
func deriveKey(key, salt []byte, algo Algorithm) ([]byte, error) {
	r := hkdf.New(sha256.New, key, salt, []byte("cloak field encryption "+string(algo)))
	out := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return out, nil
}

// Encrypt seals plaintext under the primary scheme with a fresh nonce.
// Empty plaintext is valid.
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	aead := e.aeads[e.primary]
	header := []byte{e.primary}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encrypt: generate nonce: %w", err)
	}

	// version || nonce || sealed
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, e.primary)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, header), nil
}

// Decrypt opens ciphertext written by any supported scheme.
// Empty input fails with ErrInvalidInput; anything that does not
// authenticate fails with ErrAuthenticationFailed.
func (e *Engine) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, newCipherError(ErrInvalidInput, "decrypt", errors.New("empty ciphertext"))
	}

	aead, ok := e.aeads[ciphertext[0]]
	if !ok {
		return nil, newCipherError(ErrAuthenticationFailed, "decrypt",
			fmt.Errorf("unknown format version %#x", ciphertext[0]))
	}

	body := ciphertext[1:]
	nonceSize := aead.NonceSize()
	if len(body) < nonceSize+aead.Overhead() {
		return nil, newCipherError(ErrAuthenticationFailed, "decrypt", errors.New("ciphertext too short"))
	}

	nonce, sealed := body[:nonceSize], body[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, ciphertext[:1])
	if err != nil {
		return nil, newCipherError(ErrAuthenticationFailed, "decrypt", err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}

	return plaintext, nil
}

// Encrypt encrypts plaintext with key and salt under the default scheme.
// Prefer a long-lived Engine when encrypting repeatedly.
func Encrypt(plaintext, key, salt []byte) ([]byte, error) {
	e, err := NewEngine(key, salt, AlgorithmAESGCM)
	if err != nil {
		return nil, err
	}
	return e.Encrypt(plaintext)
}

// Decrypt decrypts ciphertext produced with the same key and salt.
func Decrypt(ciphertext, key, salt []byte) ([]byte, error) {
	e, err := NewEngine(key, salt, AlgorithmAESGCM)
	if err != nil {
		return nil, err
	}
	return e.Decrypt(ciphertext)
}
