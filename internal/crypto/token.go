package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Format selects one of the two token encodings the backend produces. They are
// not interchangeable; every page accepts exactly one.
type Format int

const (
	// FormatColon is hex(iv) ":" hex(tag) ":" hex(ciphertext).
	FormatColon Format = iota + 1
	// FormatPrefixed is hex(iv || ciphertext || tag) with a 12-byte iv.
	FormatPrefixed
)

func (f Format) String() string {
	switch f {
	case FormatColon:
		return "colon"
	case FormatPrefixed:
		return "prefixed"
	default:
		return "unknown"
	}
}

// ParseFormat maps "colon" and "prefixed" to their Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "colon":
		return FormatColon, nil
	case "prefixed":
		return FormatPrefixed, nil
	}
	return 0, errors.Errorf("unknown token format %q", s)
}

const (
	ivSize  = 12
	tagSize = 16
)

// ErrDecryption is the single failure every malformed, tampered or
// undecryptable token reports.
var ErrDecryption = errors.New("token decryption failed")

// Decryptor opens session tokens sealed with AES-256-GCM. It is safe for
// concurrent use.
type Decryptor struct {
	aead cipher.AEAD
}

// NewDecryptor derives the token key once and prepares the cipher.
func NewDecryptor(passphrase, salt string, iterations int) (*Decryptor, error) {
	key, err := DeriveTokenKey(passphrase, salt, iterations)
	if err != nil {
		return nil, err
	}
	return NewDecryptorFromKey(key)
}

// NewDecryptorFromKey builds a Decryptor around an already derived key.
func NewDecryptorFromKey(key []byte) (*Decryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, err
	}
	return &Decryptor{aead: gcm}, nil
}

// Decrypt recovers the cleartext token. Any failure wraps ErrDecryption.
func (d *Decryptor) Decrypt(format Format, token string) (string, error) {
	iv, sealed, err := split(format, strings.TrimSpace(token))
	if err != nil {
		return "", err
	}
	plain, err := d.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", errors.Wrap(ErrDecryption, "authentication failed")
	}
	if len(plain) == 0 || !utf8.Valid(plain) {
		return "", errors.Wrap(ErrDecryption, "plaintext is not a token")
	}
	return string(plain), nil
}

// Seal encrypts plaintext into the given format with a fresh random iv.
func (d *Decryptor) Seal(format Format, plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("empty token")
	}
	iv, err := RandomBytes(ivSize)
	if err != nil {
		return "", err
	}
	sealed := d.aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	switch format {
	case FormatColon:
		return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
	case FormatPrefixed:
		return hex.EncodeToString(append(iv, sealed...)), nil
	}
	return "", errors.Errorf("unknown token format %d", format)
}

// split decodes a token into its iv and ciphertext||tag.
func split(format Format, token string) (iv, sealed []byte, err error) {
	if token == "" {
		return nil, nil, errors.Wrap(ErrDecryption, "empty token")
	}
	switch format {
	case FormatColon:
		fields := strings.Split(token, ":")
		if len(fields) != 3 {
			return nil, nil, errors.Wrapf(ErrDecryption, "expected 3 fields, got %d", len(fields))
		}
		iv, err = decodeHex(fields[0], "iv")
		if err != nil {
			return nil, nil, err
		}
		tag, err := decodeHex(fields[1], "tag")
		if err != nil {
			return nil, nil, err
		}
		ct, err := decodeHex(fields[2], "ciphertext")
		if err != nil {
			return nil, nil, err
		}
		if len(iv) != ivSize || len(tag) != tagSize || len(ct) == 0 {
			return nil, nil, errors.Wrap(ErrDecryption, "bad field length")
		}
		return iv, append(ct, tag...), nil
	case FormatPrefixed:
		blob, err := decodeHex(token, "token")
		if err != nil {
			return nil, nil, err
		}
		if len(blob) <= ivSize+tagSize {
			return nil, nil, errors.Wrap(ErrDecryption, "token too short")
		}
		return blob[:ivSize], blob[ivSize:], nil
	}
	return nil, nil, errors.Wrapf(ErrDecryption, "unknown format %d", format)
}

func decodeHex(s, field string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrDecryption, "%s is not hex", field)
	}
	return b, nil
}
