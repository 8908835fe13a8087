// Package cryptox wraps the symmetric primitives used at the API boundary:
// surrogate user ids are never shown in clear, they travel as AES-GCM
// ciphertexts produced by IDCipher.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// keySalt is fixed so that the same secret always yields the same key
// across restarts; ids encrypted before a restart must stay decryptable.
var keySalt = []byte("accountkeeper/id-cipher/v1")

// DeriveKey stretches secret into a 32-byte AES-256 key with argon2id.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// IDCipher encrypts and decrypts int64 identifiers.
//
// The token layout is base64url(nonce || ciphertext) without padding, where
// nonce is 12 random bytes and ciphertext is the sealed big-endian id.
// Every call to Encrypt produces a different token for the same id.
type IDCipher struct {
	aead cipher.AEAD
}

// NewIDCipher derives the key from secret and prepares the AEAD.
func NewIDCipher(secret string) (*IDCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty id encryption secret")
	}

	block, err := aes.NewCipher(DeriveKey([]byte(secret), keySalt))
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &IDCipher{aead: aead}, nil
}

// Encrypt returns the opaque token for id.
func (c *IDCipher) Encrypt(id int64) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	plaintext := make([]byte, 8)
	binary.BigEndian.PutUint64(plaintext, uint64(id))

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed, truncated or tampered token
// yields common.ErrInvalidIdentifier and never panics.
func (c *IDCipher) Decrypt(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, common.ErrInvalidIdentifier
	}

	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return 0, common.ErrInvalidIdentifier
	}

	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil || len(plaintext) != 8 {
		return 0, common.ErrInvalidIdentifier
	}

	return int64(binary.BigEndian.Uint64(plaintext)), nil
}
