package persistence

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec transforms collection bytes on their way to and from the medium.
type Codec interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// PlainCodec passes bytes through unchanged. Useful for tests and for
// deployments that rely on OS-level storage protection instead.
type PlainCodec struct{}

func (PlainCodec) Seal(plain []byte) ([]byte, error)  { return plain, nil }
func (PlainCodec) Open(sealed []byte) ([]byte, error) { return sealed, nil }

// SealedCodec authenticates and encrypts collection bytes with
// ChaCha20-Poly1305. The key is derived from a passphrase; a random nonce
// is prepended to every sealed payload.
type SealedCodec struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

func NewSealedCodec(passphrase string) (*SealedCodec, error) {
	key := sha256.Sum256([]byte(passphrase))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("init sealed codec: %w", err)
	}
	return &SealedCodec{aead: aead}, nil
}

func (c *SealedCodec) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

func (c *SealedCodec) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < c.aead.NonceSize() {
		return nil, fmt.Errorf("open: payload shorter than nonce")
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plain, nil
}
