package auth

import (
	"sort"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// ErrMalformedJWT is returned when a bearer is not a decodable JWT.
var ErrMalformedJWT = errors.New("malformed jwt")

// Claims decodes the payload of a JWT without verifying its signature. The
// portal only displays claims; the backend verifies every token it receives.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(ErrMalformedJWT, err.Error())
	}
	return claims, nil
}

// Claim is one displayable claim.
type Claim struct {
	Key   string
	Value interface{}
}

// SortedClaims returns the claims ordered by key.
func SortedClaims(c jwt.MapClaims) []Claim {
	out := make([]Claim, 0, len(c))
	for k, v := range c {
		out = append(out, Claim{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DisplayName picks the friendliest name claim present.
func DisplayName(c jwt.MapClaims) string {
	for _, k := range []string{"name", "given_name", "email", "sub"} {
		if s, ok := c[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
