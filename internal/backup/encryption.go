package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"

	apperrors "workforce-ingest/internal/errors"
)

const (
	encryptionSaltSize   = 16
	encryptionIterations = 65536
	encryptionKeySize    = 32
)

// Encryptor encrypts artifact payloads with AES-256-GCM. The key derives from
// a passphrase via PBKDF2; the salt travels with the ciphertext so any node
// with the passphrase can decrypt.
type Encryptor struct {
	passphrase []byte
}

// NewEncryptor creates an encryptor for the given passphrase
func NewEncryptor(passphrase string) (*Encryptor, error) {
	if passphrase == "" {
		return nil, apperrors.NewFault("encryption passphrase is required", nil)
	}
	return &Encryptor{passphrase: []byte(passphrase)}, nil
}

// Encrypt seals data as salt || nonce || ciphertext
func (e *Encryptor) Encrypt(data []byte) ([]byte, error) {
	salt := make([]byte, encryptionSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, apperrors.NewFault("failed to generate salt", err)
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperrors.NewFault("failed to generate nonce", err)
	}

	sealed := gcm.Seal(nil, nonce, data, nil)
	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt opens data sealed by Encrypt
func (e *Encryptor) Decrypt(data []byte) ([]byte, error) {
	if len(data) < encryptionSaltSize {
		return nil, apperrors.NewFault("encrypted payload is truncated", nil)
	}
	salt, rest := data[:encryptionSaltSize], data[encryptionSaltSize:]

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, apperrors.NewFault("encrypted payload is truncated", nil)
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperrors.NewFault("failed to decrypt artifact - wrong passphrase or corrupted data", err)
	}
	return plain, nil
}

func (e *Encryptor) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, encryptionIterations, encryptionKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.NewFault("failed to create AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.NewFault("failed to create GCM cipher", err)
	}
	return gcm, nil
}
