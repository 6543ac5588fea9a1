package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// low iteration count keeps the suite fast; the derivation path is identical.
func newTestDecryptor(t *testing.T) *Decryptor {
	t.Helper()
	d, err := NewDecryptor("test-passphrase", "test-salt", 1000)
	require.NoError(t, err)
	return d
}

func TestSealDecryptRoundTrip(t *testing.T) {
	d := newTestDecryptor(t)
	tokens := []string{
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjMifQ.sig",
		"x",
		"ünïcödé token",
		strings.Repeat("a", 4096),
	}
	for _, format := range []Format{FormatColon, FormatPrefixed} {
		for _, tok := range tokens {
			sealed, err := d.Seal(format, tok)
			require.NoError(t, err)
			got, err := d.Decrypt(format, sealed)
			require.NoError(t, err, "format %s", format)
			assert.Equal(t, tok, got)
		}
	}
}

// Builds the colon format by hand, the way the backend's Node encryptor lays it
// out (iv, auth tag and ciphertext as separate hex fields).
func TestDecryptColonIndependentEncoding(t *testing.T) {
	key, err := DeriveTokenKey("test-passphrase", "test-salt", 1000)
	require.NoError(t, err)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	iv := []byte("0123456789ab")
	sealed := gcm.Seal(nil, iv, []byte("jwt-token"), nil)
	ct, tag := sealed[:len(sealed)-16], sealed[len(sealed)-16:]
	token := hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct)

	got, err := newTestDecryptor(t).Decrypt(FormatColon, token)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", got)

	prefixed := hex.EncodeToString(append(append([]byte{}, iv...), sealed...))
	got, err = newTestDecryptor(t).Decrypt(FormatPrefixed, prefixed)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", got)
}

func TestDecryptMalformed(t *testing.T) {
	d := newTestDecryptor(t)
	valid, err := d.Seal(FormatColon, "token")
	require.NoError(t, err)
	fields := strings.Split(valid, ":")

	tests := map[string]string{
		"empty":             "",
		"one field":         fields[0],
		"two fields":        fields[0] + ":" + fields[1],
		"four fields":       valid + ":00",
		"non hex iv":        "zz" + fields[0][2:] + ":" + fields[1] + ":" + fields[2],
		"odd length":        fields[0] + ":" + fields[1] + ":" + fields[2][1:],
		"short iv":          fields[0][2:] + ":" + fields[1] + ":" + fields[2],
		"short tag":         fields[0] + ":" + fields[1][2:] + ":" + fields[2],
		"empty ciphertext":  fields[0] + ":" + fields[1] + ":",
		"truncated":         fields[0] + ":" + fields[1] + ":" + fields[2][:len(fields[2])-2],
		"tampered tag":      fields[0] + ":" + flipHex(fields[1]) + ":" + fields[2],
		"tampered cipher":   fields[0] + ":" + fields[1] + ":" + flipHex(fields[2]),
		"whitespace inside": fields[0] + ": " + fields[1] + ":" + fields[2],
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := d.Decrypt(FormatColon, tok)
				assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
			})
		})
	}
}

func TestDecryptPrefixedMalformed(t *testing.T) {
	d := newTestDecryptor(t)
	for name, tok := range map[string]string{
		"empty":     "",
		"not hex":   "not-hex-at-all",
		"too short": hex.EncodeToString(make([]byte, ivSize+tagSize)),
		"colon":     "00:00:00",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decrypt(FormatPrefixed, tok)
			assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
		})
	}
}

func TestFormatsAreNotInterchangeable(t *testing.T) {
	d := newTestDecryptor(t)
	colon, err := d.Seal(FormatColon, "token")
	require.NoError(t, err)
	prefixed, err := d.Seal(FormatPrefixed, "token")
	require.NoError(t, err)

	_, err = d.Decrypt(FormatPrefixed, colon)
	assert.True(t, errors.Is(err, ErrDecryption))
	_, err = d.Decrypt(FormatColon, prefixed)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := newTestDecryptor(t).Seal(FormatColon, "token")
	require.NoError(t, err)

	other, err := NewDecryptor("other-passphrase", "test-salt", 1000)
	require.NoError(t, err)
	_, err = other.Decrypt(FormatColon, sealed)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestNewDecryptorRequiresSecrets(t *testing.T) {
	_, err := NewDecryptor("", "salt", 1)
	assert.Equal(t, ErrMissingSecret, err)
	_, err = NewDecryptor("pass", "", 1)
	assert.Equal(t, ErrMissingSecret, err)
	_, err = NewDecryptorFromKey([]byte("short"))
	assert.Equal(t, ErrInvalidKeyLength, err)
}

func TestDeriveCodecKeys(t *testing.T) {
	hashKey, blockKey, err := DeriveCodecKeys([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	assert.Len(t, hashKey, 64)
	assert.Len(t, blockKey, 32)
	assert.NotEqual(t, hashKey[:32], blockKey)

	_, _, err = DeriveCodecKeys(nil)
	assert.Equal(t, ErrMissingSecret, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Colon")
	require.NoError(t, err)
	assert.Equal(t, FormatColon, f)
	f, err = ParseFormat("prefixed")
	require.NoError(t, err)
	assert.Equal(t, FormatPrefixed, f)
	_, err = ParseFormat("base64")
	assert.Error(t, err)
}

func flipHex(s string) string {
	b, _ := hex.DecodeString(s)
	b[0] ^= 0xff
	return hex.EncodeToString(b)
}
