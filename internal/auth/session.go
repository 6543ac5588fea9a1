package auth

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/harrylevesque/convoportal/internal/crypto"
)

var (
	// ErrMissingToken is returned when a request carries no token.
	ErrMissingToken = errors.New("missing session token")
)

// TokenParam is the query and form field the session token travels in.
const TokenParam = "token"

// Session is the decrypted credential of one request.
type Session struct {
	// Bearer is sent to the backend as the Authorization credential.
	Bearer string
	// Raw is the encrypted token as received, for links to the next page.
	Raw string
}

// Opener decrypts session tokens.
type Opener interface {
	Decrypt(format crypto.Format, token string) (string, error)
}

// Resolver turns the token parameter of a request into a Session.
type Resolver struct {
	opener Opener
}

func NewResolver(opener Opener) *Resolver {
	return &Resolver{opener: opener}
}

// FromRequest reads the token from the query string or the posted form and
// decrypts it with the page's wire format.
func (res *Resolver) FromRequest(r *http.Request, format crypto.Format) (Session, error) {
	raw := strings.TrimSpace(r.FormValue(TokenParam))
	if raw == "" {
		return Session{}, ErrMissingToken
	}
	return res.Open(raw, format)
}

// Open decrypts a raw token.
func (res *Resolver) Open(raw string, format crypto.Format) (Session, error) {
	if raw == "" {
		return Session{}, ErrMissingToken
	}
	bearer, err := res.opener.Decrypt(format, raw)
	if err != nil {
		return Session{}, err
	}
	return Session{Bearer: bearer, Raw: raw}, nil
}

// ExtractTokenFromHeader extracts the token from the Authorization header.
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
