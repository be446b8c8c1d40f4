package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

const (
	RootKeyEnvVar = "AUTHBOX_ROOTKEY"
)

type (
	Key [32]byte
)

var (
	ErrMissingKey = errors.New("credential: application key is not set")
)

// KeyFromEnv reads a base64 encoded key from varname and clears the variable
// so child processes never see it.
func KeyFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (*Key, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	if err := setfn(varname, ""); err != nil {
		return nil, fmt.Errorf("credential: unable to clear %v, cause %w", varname, err)
	}
	if len(val) == 0 {
		return nil, fmt.Errorf("%w (check %v)", ErrMissingKey, varname)
	}
	return DecodeKey(val)
}

// DecodeKey parses the base64 form produced by Key.String.
func DecodeKey(val string) (*Key, error) {
	buf, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("credential: cannot decode string to valid key, cause %v", err)
	}
	var k Key
	if len(buf) != len(k) {
		return nil, fmt.Errorf("credential: decoded key has %v bytes expecting %v", len(buf), len(k))
	}
	copy(k[:], buf)
	return &k, nil
}

func (k *Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

func (k *Key) IsZero() bool {
	var acc byte
	for _, b := range k {
		acc |= b
	}
	return acc == 0
}

func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}
