// Package crypto implements the at-rest envelope cipher: every blob written
// to object storage is PBKDF2-derived-key AES-256-CBC with the layout
// [salt:16][iv:16][ciphertext]. The engine treats its input as opaque bytes,
// so callers that already encrypted client-side simply get a second,
// independent layer.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize = 16
	ivSize   = aes.BlockSize
	keySize  = 32 // AES-256

	// kdfIterations is fixed; changing it breaks decryption of existing blobs
	kdfIterations = 100000
)

// ErrCorruptCiphertext reports a blob that is too short or fails padding
// validation. It is never retried and never exposed with cipher detail.
var ErrCorruptCiphertext = errors.New("corrupt ciphertext")

// Engine derives per-blob keys from a master secret and performs envelope
// encryption. Safe for concurrent use.
type Engine struct {
	secret []byte
}

// NewEngine creates an engine around the master file-encryption secret
func NewEngine(secret string) (*Engine, error) {
	if secret == "" {
		return nil, fmt.Errorf("file encryption secret must not be empty")
	}
	return &Engine{secret: []byte(secret)}, nil
}

// deriveKey stretches the master secret with the per-blob salt
func (e *Engine) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(e.secret, salt, kdfIterations, keySize, sha256.New)
}

// Encrypt encrypts plaintext under a freshly derived key. Salt and IV are
// random per call and never reused; the returned blob is the at-rest format.
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	blob := make([]byte, 0, saltSize+ivSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)

	return blob, nil
}

// Decrypt splits a blob back into salt/iv/ciphertext by fixed offsets,
// re-derives the key, and strips padding
func (e *Engine) Decrypt(blob []byte) ([]byte, error) {
	// Minimum: header plus one cipher block
	if len(blob) < saltSize+ivSize+aes.BlockSize {
		return nil, ErrCorruptCiphertext
	}

	salt := blob[:saltSize]
	iv := blob[saltSize : saltSize+ivSize]
	ciphertext := blob[saltSize+ivSize:]

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrCorruptCiphertext
	}

	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	return unpad(padded)
}

// pad applies PKCS#7 padding; input that is already block-aligned gains a
// full padding block
func pad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrCorruptCiphertext
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, ErrCorruptCiphertext
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrCorruptCiphertext
		}
	}

	return data[:len(data)-padLen], nil
}
