package persistence

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/remodel/pkg/domain"
)

// envelopePrefix marks a sealed snapshot.
var envelopePrefix = []byte("enc:v1:")

// ErrNotEncrypted is returned when a stored snapshot lacks the envelope.
var ErrNotEncrypted = errors.New("snapshot is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionCodec struct {
	next   Codec
	config EncryptionConfig
}

// NewEncryption returns a middleware sealing the encoded snapshot with AES-GCM.
func NewEncryption(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256)", i)
		}
	}
	return func(next Codec) Codec {
		return &encryptionCodec{next: next, config: config}
	}, nil
}

func (c *encryptionCodec) Marshal(snap *domain.Snapshot) ([]byte, error) {
	plain, err := c.next.Marshal(snap)
	if err != nil {
		return nil, err
	}
	sealed, err := encrypt(plain, c.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt snapshot: %w", err)
	}

	out := make([]byte, len(envelopePrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	copy(out, envelopePrefix)
	base64.StdEncoding.Encode(out[len(envelopePrefix):], sealed)
	return out, nil
}

func (c *encryptionCodec) Unmarshal(data []byte) (*domain.Snapshot, error) {
	// Plain snapshots are refused: once encryption is configured it is expected.
	if !bytes.HasPrefix(data, envelopePrefix) {
		return nil, ErrNotEncrypted
	}
	encoded := data[len(envelopePrefix):]
	sealed := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(sealed, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := decryptWithRotation(sealed[:n], c.config.ActiveKey, c.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt snapshot: %w", err)
	}
	return c.next.Unmarshal(plain)
}

// ParseKey decodes a 32-byte key given as 64 hex digits or standard base64.
func ParseKey(s string) ([]byte, error) {
	if k, err := hex.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	return nil, errors.New("key must be 32 bytes, hex or base64 encoded")
}

// ConfigFromKeys builds an EncryptionConfig; the first key is active.
func ConfigFromKeys(keys []string) (EncryptionConfig, error) {
	if len(keys) == 0 {
		return EncryptionConfig{}, errors.New("no encryption keys")
	}
	var cfg EncryptionConfig
	for i, s := range keys {
		k, err := ParseKey(s)
		if err != nil {
			return EncryptionConfig{}, fmt.Errorf("encryption key %d: %w", i, err)
		}
		if i == 0 {
			cfg.ActiveKey = k
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, k)
		}
	}
	return cfg, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
