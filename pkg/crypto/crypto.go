// Package crypto encrypts token payloads at rest.
// AES-256-GCM is used for encryption.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ivSize matches the initialization vector length used by the demo database
// format. GCM accepts non-standard nonce sizes; 16 bytes is what existing
// db.json files contain, so stay compatible with them.
const ivSize = 16

// keySize is the AES-256 key length in bytes.
const keySize = 32

// EncryptedPayload is a token serialized to text and encrypted. The IV is not
// considered a secret, so it is stored alongside the ciphertext in plain
// (base64) form.
type EncryptedPayload struct {
	// EncryptedData is the base64-encoded ciphertext, including the GCM
	// authentication tag.
	EncryptedData string `json:"encryptedData"`

	// IV is the base64-encoded initialization vector used to encrypt.
	IV string `json:"iv"`
}

// Encryptor performs authenticated encryption with a single long-lived key.
type Encryptor struct {
	aead cipher.AEAD
}

// New creates an Encryptor from a base64-encoded 256-bit key, typically the
// DATABASE_ENCRYPTION_KEY environment value. A missing key is a fatal
// configuration error and is reported as such by config loading before this
// point; here we only guard against a malformed one.
func New(base64Key string) (*Encryptor, error) {
	if base64Key == "" {
		return nil, errors.New("encryption key cannot be empty")
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// Encrypt encrypts the given plaintext with a fresh random IV.
// Encrypting the same plaintext twice yields different payloads.
func (e *Encryptor) Encrypt(plaintext string) (EncryptedPayload, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return EncryptedPayload{}, fmt.Errorf("failed to generate initialization vector: %w", err)
	}

	ciphertext := e.aead.Seal(nil, iv, []byte(plaintext), nil)

	return EncryptedPayload{
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		IV:            base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt recovers the plaintext from a payload produced by Encrypt. It
// returns an error when the payload is malformed or was produced under a
// different key; a tampered ciphertext fails authentication rather than
// decrypting to garbage.
func (e *Encryptor) Decrypt(payload EncryptedPayload) (string, error) {
	iv, err := base64.StdEncoding.DecodeString(payload.IV)
	if err != nil {
		return "", fmt.Errorf("initialization vector is not valid base64: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("initialization vector must be %d bytes, got %d", ivSize, len(iv))
	}

	ciphertext, err := base64.StdEncoding.DecodeString(payload.EncryptedData)
	if err != nil {
		return "", fmt.Errorf("encrypted data is not valid base64: %w", err)
	}

	plaintext, err := e.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return string(plaintext), nil
}
