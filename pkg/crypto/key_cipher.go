package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"

	domainerrors "soulbound.backend/internal/domain/errors"
)

// KeyCipher encrypts custodial private keys at rest with AES-256-GCM.
// Encrypted values have the form hex(nonce) ":" hex(ciphertext||tag).
type KeyCipher struct {
	key []byte
}

var nonceReader io.Reader = rand.Reader

// NewKeyCipher parses a 64 hex character server secret.
func NewKeyCipher(secretHex string) (*KeyCipher, error) {
	key, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(secretHex), "0x"))
	if err != nil {
		return nil, domainerrors.Configuration("wallet encryption key must be hex encoded")
	}
	if len(key) != 32 {
		return nil, domainerrors.Configuration("wallet encryption key must be 32 bytes (64 hex chars)")
	}
	return &KeyCipher{key: key}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *KeyCipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(nonceReader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed or tampered input yields ErrDecryption.
func (c *KeyCipher) Decrypt(encrypted string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(encrypted, ":")
	if !ok || nonceHex == "" || sealedHex == "" {
		return "", domainerrors.ErrDecryption
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", domainerrors.ErrDecryption
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", domainerrors.ErrDecryption
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() || len(sealed) < gcm.Overhead() {
		return "", domainerrors.ErrDecryption
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", domainerrors.ErrDecryption
	}
	return string(plaintext), nil
}

func (c *KeyCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
