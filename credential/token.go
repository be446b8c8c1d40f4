package credential

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	SaltSize = 32
)

type (
	Issuer struct {
		hasher  *Hasher
		entropy io.Reader
	}
)

// RandomSalt reads SaltSize bytes from entropy (crypto/rand when nil).
func RandomSalt(entropy io.Reader) (string, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	var buf [SaltSize]byte
	if _, err := io.ReadFull(entropy, buf[:]); err != nil {
		return "", fmt.Errorf("credential: unable to read random salt, cause %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf[:]), nil
}

func NewIssuer(h *Hasher, entropy io.Reader) *Issuer {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Issuer{hasher: h, entropy: entropy}
}

// Issue mints a session token for userID. Each call uses a fresh salt, so
// two sessions of the same user never share a token.
func (i *Issuer) Issue(userID string) (string, error) {
	salt, err := RandomSalt(i.entropy)
	if err != nil {
		return "", err
	}
	return i.hasher.Hash(salt, userID), nil
}
