package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor the backend seals tokens with.
	DefaultIterations = 100000
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	hashKeySize  = 64
	blockKeySize = 32
)

var (
	// ErrMissingSecret is returned when a passphrase, salt or secret is empty.
	ErrMissingSecret = errors.New("missing key material")
	// ErrInvalidKeyLength is returned when the provided key length is invalid.
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// DeriveTokenKey derives the 256-bit token key with PBKDF2-HMAC-SHA256.
// A non-positive iteration count falls back to DefaultIterations.
func DeriveTokenKey(passphrase, salt string, iterations int) ([]byte, error) {
	if passphrase == "" || salt == "" {
		return nil, ErrMissingSecret
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, KeySize, sha256.New), nil
}

// DeriveCodecKeys derives the HMAC key and the AES key of the wizard state
// codec from one configured secret using HKDF-SHA256.
func DeriveCodecKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	if len(secret) == 0 {
		return nil, nil, ErrMissingSecret
	}
	hashKey, err = expand(secret, "wizard-hash", hashKeySize)
	if err != nil {
		return nil, nil, err
	}
	blockKey, err = expand(secret, "wizard-block", blockKeySize)
	if err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

func expand(secret []byte, info string, n int) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, errors.Wrapf(err, "hkdf %s", info)
	}
	return out, nil
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
