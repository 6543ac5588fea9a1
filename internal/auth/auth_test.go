package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/convoportal/internal/crypto"
)

func newResolver(t *testing.T) (*Resolver, *crypto.Decryptor) {
	t.Helper()
	d, err := crypto.NewDecryptorFromKey(make([]byte, crypto.KeySize))
	require.NoError(t, err)
	return NewResolver(d), d
}

func TestFromRequestQuery(t *testing.T) {
	res, d := newResolver(t)
	tok, err := d.Seal(crypto.FormatColon, "jwt-value")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/pricing?token="+url.QueryEscape(tok), nil)
	s, err := res.FromRequest(r, crypto.FormatColon)
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", s.Bearer)
	assert.Equal(t, tok, s.Raw)
}

func TestFromRequestForm(t *testing.T) {
	res, d := newResolver(t)
	tok, err := d.Seal(crypto.FormatPrefixed, "jwt-value")
	require.NoError(t, err)

	form := url.Values{TokenParam: {tok}}
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s, err := res.FromRequest(r, crypto.FormatPrefixed)
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", s.Bearer)
}

func TestFromRequestErrors(t *testing.T) {
	res, d := newResolver(t)

	_, err := res.FromRequest(httptest.NewRequest(http.MethodGet, "/pricing", nil), crypto.FormatColon)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = res.FromRequest(httptest.NewRequest(http.MethodGet, "/pricing?token=zz:zz:zz", nil), crypto.FormatColon)
	assert.ErrorIs(t, err, crypto.ErrDecryption)

	tok, err := d.Seal(crypto.FormatColon, "jwt-value")
	require.NoError(t, err)
	_, err = res.Open(tok, crypto.FormatPrefixed)
	assert.ErrorIs(t, err, crypto.ErrDecryption, "a page only accepts its own format")
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, ExtractTokenFromHeader(r), tt.header)
	}
}

func TestClaims(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ada@example.com",
		"name":  "Ada",
		"sub":   "123",
	})
	signed, err := tok.SignedString([]byte("any key"))
	require.NoError(t, err)

	c, err := Claims(signed)
	require.NoError(t, err)
	assert.Equal(t, "Ada", DisplayName(c))

	sorted := SortedClaims(c)
	require.Len(t, sorted, 3)
	assert.Equal(t, "email", sorted[0].Key)
	assert.Equal(t, "sub", sorted[2].Key)

	delete(c, "name")
	assert.Equal(t, "ada@example.com", DisplayName(c))

	_, err = Claims("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedJWT)
}
