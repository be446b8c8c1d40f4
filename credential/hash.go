package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	hkdfInfo = "authbox/credential/v1"
)

type (
	Hasher struct {
		key Key
	}
)

// NewHasher copies key; later changes to key do not affect the Hasher.
func NewHasher(key *Key) (*Hasher, error) {
	if key == nil || key.IsZero() {
		return nil, ErrMissingKey
	}
	return &Hasher{key: *key}, nil
}

// Hash returns the hex encoded digest of secret under salt.
// The output is always 64 characters long.
func (h *Hasher) Hash(salt, secret string) string {
	var macKey [sha256.Size]byte
	kdf := hkdf.New(sha256.New, h.key[:], []byte(salt), []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, macKey[:]); err != nil {
		// hkdf only fails after 255 blocks of output
		panic(err)
	}
	mac := hmac.New(sha256.New, macKey[:])
	io.WriteString(mac, secret)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether secret hashes to digest under salt.
func (h *Hasher) Verify(salt, secret, digest string) bool {
	expected := h.Hash(salt, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) == 1
}
