package api

import (
	"time"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"

	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/wizard"
)

// ErrStaleState is returned for a wizard form that was tampered with,
// sealed under another secret, or is older than the codec's max age.
var ErrStaleState = errors.New("wizard state rejected")

const (
	stateField = "state"
	// Sealed states travel in a form field, not a cookie, so they may exceed
	// the default cookie-sized limit.
	stateMaxLength = 16 << 10
)

// StateCodec seals wizard state into an opaque, authenticated and encrypted
// string.
type StateCodec struct {
	sc *securecookie.SecureCookie
}

func NewStateCodec(secret []byte, maxAge time.Duration) (*StateCodec, error) {
	hashKey, blockKey, err := crypto.DeriveCodecKeys(secret)
	if err != nil {
		return nil, err
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(maxAge / time.Second))
	sc.MaxLength(stateMaxLength)
	return &StateCodec{sc: sc}, nil
}

func (c *StateCodec) Encode(s wizard.State) (string, error) {
	v, err := c.sc.Encode(stateField, s)
	if err != nil {
		return "", errors.Wrap(err, "seal wizard state")
	}
	return v, nil
}

func (c *StateCodec) Decode(value string) (wizard.State, error) {
	var s wizard.State
	if value == "" {
		return s, errors.Wrap(ErrStaleState, "empty")
	}
	if err := c.sc.Decode(stateField, value, &s); err != nil {
		return wizard.State{}, errors.Wrap(ErrStaleState, err.Error())
	}
	return s, nil
}
